package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/tamweel-auto/waitlist/internal/analytics"
)

func RegisterAnalyticsRoutes(r fiber.Router, tracker analytics.Tracker, debouncer *analytics.Debouncer, logger *slog.Logger) {
	r.Post("/analytics/calculator", analytics.NewHandler(tracker, debouncer, logger).Calculator)
}
