package analytics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tamweel-auto/waitlist/internal/tier"
)

// Handler exposes analytics endpoints.
type Handler struct {
	tracker   Tracker
	debouncer *Debouncer
	logger    *slog.Logger
}

// NewHandler constructs an analytics HTTP handler.
func NewHandler(tracker Tracker, debouncer *Debouncer, logger *slog.Logger) *Handler {
	return &Handler{tracker: tracker, debouncer: debouncer, logger: logger}
}

type calculatorRequest struct {
	SessionID string         `json:"sessionId"`
	Points    int            `json:"points"`
	Inputs    map[string]any `json:"inputs"`
}

type calculatorResponse struct {
	Points int       `json:"points"`
	Tier   tier.Tier `json:"tier"`
}

// Calculator records a points-calculator interaction. Rapid calls for the
// same session collapse into one event.
func (h *Handler) Calculator(c *fiber.Ctx) error {
	var req calculatorRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	key := req.SessionID
	if key == "" {
		key = c.IP()
	}
	t := tier.For(req.Points)
	event := Event{
		Name:      EventCalculatorChanged,
		SessionID: req.SessionID,
		Properties: map[string]any{
			"points": req.Points,
			"tier":   t.String(),
			"inputs": req.Inputs,
		},
		OccurredAt: time.Now().UTC(),
	}
	ctx := context.WithoutCancel(c.UserContext())
	h.debouncer.Schedule(key, func() {
		if err := h.tracker.Track(ctx, event); err != nil {
			h.logger.Warn("analytics track failed", slog.Any("error", err))
		}
	})
	return c.Status(http.StatusAccepted).JSON(calculatorResponse{Points: req.Points, Tier: t})
}
