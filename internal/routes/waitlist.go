package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tamweel-auto/waitlist/internal/middleware"
	"github.com/tamweel-auto/waitlist/internal/waitlist"
)

// RegisterWaitlistRoutes wires the submission form and status lookups.
// Submissions are rate limited and replay-safe when Redis is available.
func RegisterWaitlistRoutes(r fiber.Router, d Deps, svc *waitlist.Service) {
	h := waitlist.NewHandler(svc)
	r.Post("/waitlist",
		middleware.SubmissionRateLimit(d.Cache, d.Cfg.Waitlist.SubmitRateLimit, d.Logger),
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, false, d.Logger),
		h.Submit,
	)
	r.Get("/waitlist/status/:statusID", h.Status)
	r.Get("/waitlist/confirmation", h.Confirmation)
}
