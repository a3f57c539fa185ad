package documents

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tamweel-auto/waitlist/internal/analysis"
	"github.com/tamweel-auto/waitlist/internal/i18n"
)

// Handler exposes document upload endpoints.
type Handler struct {
	orchestrator *Orchestrator
}

// NewHandler constructs a documents HTTP handler.
func NewHandler(orchestrator *Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// Upload accepts a multipart file and document_type. The pipeline runs in
// the background and the 202 response carries the initial snapshot; with
// ?wait=true it runs inline and returns the final state.
func (h *Handler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	locale, ok := i18n.ParseLocale(c.FormValue("locale"))
	if !ok {
		locale = i18n.Negotiate(c.Get(fiber.HeaderAcceptLanguage))
	}
	file := File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
		Locale:      locale,
	}

	upload, err := h.orchestrator.Begin(file, analysis.DocumentType(c.FormValue("document_type")))
	switch {
	case errors.Is(err, ErrEmptyFile), errors.Is(err, ErrInvalidDocumentType):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	ctx := context.WithoutCancel(c.UserContext())
	if c.QueryBool("wait") {
		return c.Status(http.StatusOK).JSON(h.orchestrator.Run(ctx, upload.ID, file))
	}
	h.orchestrator.Start(ctx, upload.ID, file)
	return c.Status(http.StatusAccepted).JSON(upload)
}

// Get returns the current state of an upload.
func (h *Handler) Get(c *fiber.Ctx) error {
	upload, ok := h.orchestrator.Get(c.Params("id"))
	if !ok {
		return fiber.NewError(http.StatusNotFound, ErrNotFound.Error())
	}
	return c.JSON(upload)
}

// List returns every tracked upload.
func (h *Handler) List(c *fiber.Ctx) error {
	uploads := h.orchestrator.List()
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"uploads": uploads,
		"count":   len(uploads),
	})
}

// Remove stops tracking an upload.
func (h *Handler) Remove(c *fiber.Ctx) error {
	if !h.orchestrator.Remove(c.Params("id")) {
		return fiber.NewError(http.StatusNotFound, ErrNotFound.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}
