package waitlist

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tamweel-auto/waitlist/internal/i18n"
)

const (
	sessionHeader = "X-Session-ID"
	sessionCookie = "sid"
)

// Handler exposes waitlist endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a waitlist HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type submitRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	ReferrerCode string `json:"referrerCode"`
	Variant      string `json:"variant"`
	Locale       string `json:"locale"`
}

type submitResponse struct {
	Outcome      Outcome       `json:"outcome"`
	StatusID     string        `json:"statusId"`
	Redirect     string        `json:"redirect"`
	Locale       i18n.Locale   `json:"locale"`
	Dir          string        `json:"dir"`
	Message      string        `json:"message,omitempty"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	TierLabel    string        `json:"tierLabel,omitempty"`
}

type fieldError struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// Submit handles the waitlist form. New entrants get 201 with the
// confirmation; an already registered email gets 200 with a redirect to
// the existing status page.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	locale := localeOf(c, req.Locale)

	res, err := h.service.Submit(c.UserContext(), Form{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		ReferrerCode: req.ReferrerCode,
		Variant:      req.Variant,
		SessionID:    sessionID(c, true),
		Locale:       locale,
	})
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(http.StatusBadRequest).JSON(fieldError{
			Error: h.service.Catalog.T(locale, verr.Reason),
			Field: verr.Field,
		})
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, h.service.Catalog.T(locale, i18n.WaitlistGenericError))
	}

	out := submitResponse{
		Outcome:  res.Outcome,
		StatusID: res.StatusID,
		Redirect: statusPath(locale, res.StatusID),
		Locale:   locale,
		Dir:      locale.Dir(),
	}
	if res.Outcome == OutcomeExisting {
		out.Message = h.service.Catalog.T(locale, i18n.WaitlistAlreadyJoined)
		return c.Status(http.StatusOK).JSON(out)
	}
	out.Confirmation = res.Confirmation
	out.TierLabel = h.service.Catalog.T(locale, res.Confirmation.Tier.Key())
	return c.Status(http.StatusCreated).JSON(out)
}

// Status returns an entrant's public standing.
func (h *Handler) Status(c *fiber.Ctx) error {
	st, err := h.service.Status(c.UserContext(), c.Params("statusID"))
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, h.service.Catalog.T(localeOf(c, ""), i18n.WaitlistNotFound))
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(st)
}

// Confirmation returns the confirmation saved for the caller's session.
func (h *Handler) Confirmation(c *fiber.Ctx) error {
	conf, err := h.service.Confirmation(c.UserContext(), sessionID(c, false))
	if errors.Is(err, ErrSessionNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(conf)
}

func localeOf(c *fiber.Ctx, explicit string) i18n.Locale {
	if l, ok := i18n.ParseLocale(explicit); ok {
		return l
	}
	return i18n.Negotiate(c.Get(fiber.HeaderAcceptLanguage))
}

// sessionID reads the caller's session from the header or cookie. With
// create set, a missing session is minted and handed back in both.
func sessionID(c *fiber.Ctx, create bool) string {
	if id := c.Get(sessionHeader); id != "" {
		return id
	}
	if id := c.Cookies(sessionCookie); id != "" {
		return id
	}
	if !create {
		return ""
	}
	id := uuid.NewString()
	c.Set(sessionHeader, id)
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
	return id
}

func statusPath(locale i18n.Locale, statusID string) string {
	return "/" + string(locale) + "/status/" + statusID
}
