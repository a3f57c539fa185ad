package waitlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tamweel-auto/waitlist/internal/i18n"
	"github.com/tamweel-auto/waitlist/internal/logging"
	"github.com/tamweel-auto/waitlist/internal/notification"
	"github.com/tamweel-auto/waitlist/internal/tier"
)

// Dependencies are the collaborators a Service uses. Sessions, Tiers and
// Notifier are optional.
type Dependencies struct {
	Repo        Repository
	Issuer      IdentityIssuer
	Sessions    SessionStore
	Tiers       *tier.Resolver
	Notifier    notification.Notifier
	Catalog     *i18n.Catalog
	Logger      *slog.Logger
	CountryCode string
}

// Service runs waitlist submissions and lookups.
type Service struct {
	Dependencies
	now func() time.Time
	wg  sync.WaitGroup
}

// NewService wires a waitlist service.
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Catalog == nil {
		deps.Catalog = i18n.NewCatalog(deps.Logger)
	}
	if deps.CountryCode == "" {
		deps.CountryCode = DefaultCountryCode
	}
	return &Service{Dependencies: deps, now: time.Now}
}

// Validate normalizes a form and returns the first field error.
func (s *Service) Validate(form Form) (Form, error) {
	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		return form, &ValidationError{Field: "name", Reason: i18n.WaitlistNameRequired}
	}
	email, err := NormalizeEmail(form.Email)
	if err != nil {
		return form, err
	}
	form.Email = email
	if strings.TrimSpace(form.Phone) == "" {
		return form, &ValidationError{Field: "phone", Reason: i18n.WaitlistPhoneRequired}
	}
	phone, err := NormalizePhone(form.Phone, s.CountryCode)
	if err != nil {
		return form, err
	}
	form.Phone = phone
	form.ReferrerCode = NormalizeReferralCode(form.ReferrerCode)
	if form.Locale == "" {
		form.Locale = i18n.DefaultLocale
	}
	return form, nil
}

// Submit adds a prospective entrant to the waitlist. An email that is
// already registered is not an error: the result carries OutcomeExisting
// and the existing entrant's status id.
func (s *Service) Submit(ctx context.Context, form Form) (Result, error) {
	form, err := s.Validate(form)
	if err != nil {
		return Result{}, err
	}
	log := logging.FromContext(ctx, s.Logger)

	ids, err := s.issue(ctx)
	if err != nil {
		log.Error("waitlist identity generation failed", slog.Any("error", err))
		return Result{}, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}

	entrant := Entrant{
		ID:           uuid.NewString(),
		Name:         form.Name,
		Email:        form.Email,
		Phone:        form.Phone,
		ReferralCode: ids.referralCode,
		ReferrerCode: s.knownReferrer(ctx, log, form.ReferrerCode),
		Position:     ids.position,
		Points:       InitialPoints,
		DisplayAlias: ids.alias,
		StatusID:     uuid.NewString(),
		Variant:      form.Variant,
		Locale:       form.Locale,
		CreatedAt:    s.now().UTC(),
	}

	err = s.Repo.Create(ctx, entrant)
	if errors.Is(err, ErrDuplicateEmail) {
		existing, findErr := s.Repo.FindByEmail(ctx, form.Email)
		if findErr != nil {
			log.Error("waitlist duplicate lookup failed", slog.Any("error", findErr))
			return Result{}, findErr
		}
		log.Info("waitlist email already registered", slog.String("status_id", existing.StatusID))
		return Result{Outcome: OutcomeExisting, StatusID: existing.StatusID}, nil
	}
	if err != nil {
		log.Error("waitlist insert failed", slog.Any("error", err))
		return Result{}, err
	}

	conf := Confirmation{
		ReferralCode: entrant.ReferralCode,
		Position:     entrant.Position,
		Points:       entrant.Points,
		StatusID:     entrant.StatusID,
		Tier:         s.Tiers.Resolve(ctx, entrant.Points),
		CapturedAt:   entrant.CreatedAt,
	}
	log = log.With(slog.String("status_id", entrant.StatusID))

	if s.Sessions != nil && form.SessionID != "" {
		if err := s.Sessions.Save(ctx, form.SessionID, conf); err != nil {
			log.Warn("waitlist session save failed", slog.Any("error", err))
		}
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.welcome(context.WithoutCancel(ctx), log, entrant)
	}()

	return Result{Outcome: OutcomeCreated, Confirmation: &conf, StatusID: entrant.StatusID}, nil
}

// Wait blocks until pending welcome notifications are sent or ctx expires.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status looks an entrant up by status id.
func (s *Service) Status(ctx context.Context, statusID string) (Status, error) {
	e, err := s.Repo.FindByStatusID(ctx, statusID)
	if err != nil {
		return Status{}, err
	}
	t := s.Tiers.Resolve(ctx, e.Points)
	return Status{
		StatusID:     e.StatusID,
		DisplayAlias: e.DisplayAlias,
		ReferralCode: e.ReferralCode,
		Position:     e.Position,
		Points:       e.Points,
		Tier:         t,
		TierLabel:    s.Catalog.T(e.Locale, t.Key()),
		Locale:       e.Locale,
		Dir:          e.Locale.Dir(),
		JoinedAt:     e.CreatedAt,
	}, nil
}

// Confirmation reloads the confirmation saved for a session.
func (s *Service) Confirmation(ctx context.Context, sessionID string) (Confirmation, error) {
	if s.Sessions == nil || sessionID == "" {
		return Confirmation{}, ErrSessionNotFound
	}
	return s.Sessions.Load(ctx, sessionID)
}

type identities struct {
	alias        string
	position     int
	referralCode string
}

// issue requests all three identities together. Nothing is reused between
// attempts.
func (s *Service) issue(ctx context.Context) (identities, error) {
	var ids identities
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		alias, err := s.Issuer.DisplayAlias(gctx)
		if err != nil {
			return fmt.Errorf("display alias: %w", err)
		}
		ids.alias = alias
		return nil
	})
	g.Go(func() error {
		pos, err := s.Issuer.NextPosition(gctx)
		if err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		ids.position = pos
		return nil
	})
	g.Go(func() error {
		code, err := s.Issuer.ReferralCode(gctx)
		if err != nil {
			return fmt.Errorf("referral code: %w", err)
		}
		ids.referralCode = code
		return nil
	})
	if err := g.Wait(); err != nil {
		return identities{}, err
	}
	return ids, nil
}

func (s *Service) knownReferrer(ctx context.Context, log *slog.Logger, code string) string {
	if code == "" {
		return ""
	}
	if _, err := s.Repo.FindByReferralCode(ctx, code); err != nil {
		log.Info("waitlist referrer dropped", slog.String("referrer_code", code), slog.Any("error", err))
		return ""
	}
	return code
}

func (s *Service) welcome(ctx context.Context, log *slog.Logger, e Entrant) {
	if s.Notifier == nil {
		return
	}
	msg := notification.Message{
		Kind:        notification.KindWaitlistJoined,
		Destination: e.Email,
		Locale:      string(e.Locale),
		Subject:     s.Catalog.T(e.Locale, i18n.WaitlistWelcomeSubj),
		Body:        s.Catalog.T(e.Locale, i18n.WaitlistWelcomeBody, e.Name, e.Position, e.ReferralCode),
		Attributes: map[string]string{
			"status_id":     e.StatusID,
			"referral_code": e.ReferralCode,
			"position":      strconv.Itoa(e.Position),
		},
	}
	if err := s.Notifier.Send(ctx, msg); err != nil {
		log.Warn("waitlist welcome notification failed", slog.Any("error", err))
	}
}
