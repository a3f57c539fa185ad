package analysis

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the analysis endpoint.
type Handler struct {
	analyzer Analyzer
}

// NewHandler constructs an analysis HTTP handler.
func NewHandler(analyzer Analyzer) *Handler {
	return &Handler{analyzer: analyzer}
}

// Analyze handles POST /analyze-document.
func (h *Handler) Analyze(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.DocumentID == "" {
		return fiber.NewError(http.StatusBadRequest, "documentId is required")
	}
	if !req.DocumentType.Valid() {
		return fiber.NewError(http.StatusBadRequest, "documentType must be salary_certificate or bank_statement")
	}
	if req.FileURL == "" && len(req.Images) == 0 {
		return fiber.NewError(http.StatusBadRequest, "fileUrl or images is required")
	}

	resp, err := h.analyzer.Analyze(c.UserContext(), req)
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusUnprocessableEntity
		if resp.Error == ErrorServer {
			status = http.StatusInternalServerError
		}
	}
	return c.Status(status).JSON(resp)
}
