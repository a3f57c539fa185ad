package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tamweel-auto/waitlist/internal/documents"
)

// RegisterDocumentRoutes wires upload tracking endpoints.
func RegisterDocumentRoutes(r fiber.Router, orch *documents.Orchestrator) {
	h := documents.NewHandler(orch)
	r.Post("/documents", h.Upload)
	r.Get("/documents", h.List)
	r.Get("/documents/:id", h.Get)
	r.Delete("/documents/:id", h.Remove)
}
