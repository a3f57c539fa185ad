package waitlist

import (
	"errors"
	"time"

	"github.com/tamweel-auto/waitlist/internal/i18n"
	"github.com/tamweel-auto/waitlist/internal/tier"
)

// InitialPoints is granted to every new entrant.
const InitialPoints = 100

var (
	ErrDuplicateEmail      = errors.New("waitlist: email already registered")
	ErrNotFound            = errors.New("waitlist: entrant not found")
	ErrIdentityUnavailable = errors.New("waitlist: identity generation failed")
	ErrSessionNotFound     = errors.New("waitlist: no confirmation for session")
)

// Entrant is a row of waitlist_entrants.
type Entrant struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	ReferralCode string
	ReferrerCode string
	Position     int
	Points       int
	DisplayAlias string
	StatusID     string
	Variant      string
	Locale       i18n.Locale
	CreatedAt    time.Time
}

// Form is a submission as typed by the user.
type Form struct {
	Name         string
	Email        string
	Phone        string
	ReferrerCode string
	Variant      string
	SessionID    string
	Locale       i18n.Locale
}

// Confirmation is what the confirmation view needs after a successful submit.
type Confirmation struct {
	ReferralCode string    `json:"referralCode"`
	Position     int       `json:"position"`
	Points       int       `json:"points"`
	StatusID     string    `json:"statusId"`
	Tier         tier.Tier `json:"tier"`
	CapturedAt   time.Time `json:"capturedAt"`
}

// Outcome distinguishes a new entrant from a recovered duplicate.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeExisting Outcome = "existing"
)

// Result of Submit. Confirmation is set only for OutcomeCreated.
type Result struct {
	Outcome      Outcome
	Confirmation *Confirmation
	StatusID     string
}

// Status is the public view of an entrant, looked up by status id.
type Status struct {
	StatusID     string      `json:"statusId"`
	DisplayAlias string      `json:"displayAlias"`
	ReferralCode string      `json:"referralCode"`
	Position     int         `json:"position"`
	Points       int         `json:"points"`
	Tier         tier.Tier   `json:"tier"`
	TierLabel    string      `json:"tierLabel"`
	Locale       i18n.Locale `json:"locale"`
	Dir          string      `json:"dir"`
	JoinedAt     time.Time   `json:"joinedAt"`
}

// ValidationError reports the first invalid form field.
type ValidationError struct {
	Field  string
	Reason i18n.Key
}

func (e *ValidationError) Error() string {
	return "waitlist: invalid " + e.Field + " (" + string(e.Reason) + ")"
}
