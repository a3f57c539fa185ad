package waitlist

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tamweel-auto/waitlist/internal/i18n"
)

const (
	uniqueViolation = "23505"
	emailConstraint = "waitlist_entrants_email_key"
)

// Repository persists waitlist entrants.
type Repository interface {
	Create(ctx context.Context, entrant Entrant) error
	FindByEmail(ctx context.Context, email string) (Entrant, error)
	FindByStatusID(ctx context.Context, statusID string) (Entrant, error)
	FindByReferralCode(ctx context.Context, code string) (Entrant, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed waitlist repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectEntrant = `SELECT id, name, email, phone, referral_code, COALESCE(referred_by, ''),
        position, points, display_alias, status_id, COALESCE(variant, ''), locale, created_at
        FROM waitlist_entrants`

// Create inserts an entrant. A clash on the email constraint is reported as
// ErrDuplicateEmail; any other failure is returned as is.
func (r *PostgresRepository) Create(ctx context.Context, e Entrant) error {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return err
	}
	statusID, err := uuid.Parse(e.StatusID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO waitlist_entrants
        (id, name, email, phone, referral_code, referred_by, position, points, display_alias, status_id, variant, locale, created_at)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, NULLIF($11, ''), $12, $13)`,
		id, e.Name, e.Email, e.Phone, e.ReferralCode, e.ReferrerCode, e.Position, e.Points,
		e.DisplayAlias, statusID, e.Variant, string(e.Locale), e.CreatedAt.UTC())
	return insertError(err)
}

// insertError reports a unique violation on the email constraint as
// ErrDuplicateEmail. Every other error, other conflicts included, is returned
// unchanged.
func insertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == emailConstraint {
		return ErrDuplicateEmail
	}
	return err
}

// FindByEmail fetches an entrant by normalized email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Entrant, error) {
	return r.findOne(ctx, selectEntrant+` WHERE email = $1`, email)
}

// FindByStatusID fetches an entrant by the opaque id used in status links.
func (r *PostgresRepository) FindByStatusID(ctx context.Context, statusID string) (Entrant, error) {
	id, err := uuid.Parse(statusID)
	if err != nil {
		return Entrant{}, ErrNotFound
	}
	return r.findOne(ctx, selectEntrant+` WHERE status_id = $1`, id)
}

// FindByReferralCode fetches the owner of a referral code.
func (r *PostgresRepository) FindByReferralCode(ctx context.Context, code string) (Entrant, error) {
	return r.findOne(ctx, selectEntrant+` WHERE referral_code = $1`, code)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (Entrant, error) {
	var (
		e         Entrant
		id        uuid.UUID
		statusID  uuid.UUID
		locale    string
		createdAt time.Time
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(&id, &e.Name, &e.Email, &e.Phone, &e.ReferralCode,
		&e.ReferrerCode, &e.Position, &e.Points, &e.DisplayAlias, &statusID, &e.Variant, &locale, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entrant{}, ErrNotFound
	}
	if err != nil {
		return Entrant{}, err
	}
	e.ID = id.String()
	e.StatusID = statusID.String()
	e.Locale = i18n.Locale(locale)
	e.CreatedAt = createdAt.UTC()
	return e, nil
}
