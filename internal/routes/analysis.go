package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tamweel-auto/waitlist/internal/analysis"
)

// RegisterAnalysisRoutes exposes the in-process document analyser.
func RegisterAnalysisRoutes(r fiber.Router, analyzer analysis.Analyzer) {
	r.Post("/analyze-document", analysis.NewHandler(analyzer).Analyze)
}
