package tier

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tamweel-auto/waitlist/internal/logging"
)

// Remote looks tiers up through the database procedure.
type Remote interface {
	TierForPoints(ctx context.Context, points int) (string, error)
}

// PostgresRemote calls get_tier_for_points.
type PostgresRemote struct {
	db *pgxpool.Pool
}

// NewPostgresRemote builds a Remote backed by PostgreSQL.
func NewPostgresRemote(db *pgxpool.Pool) *PostgresRemote {
	return &PostgresRemote{db: db}
}

// TierForPoints returns the label computed by the database.
func (r *PostgresRemote) TierForPoints(ctx context.Context, points int) (string, error) {
	var label string
	if err := r.db.QueryRow(ctx, `SELECT get_tier_for_points($1)`, points).Scan(&label); err != nil {
		return "", err
	}
	return label, nil
}

// Resolver asks the remote procedure for a tier and validates the answer
// against For. The local value always wins, so a broken or unreachable
// remote never changes what a user sees.
type Resolver struct {
	remote  Remote
	logger  *slog.Logger
	timeout time.Duration
}

// NewResolver builds a resolver. A nil remote resolves locally only.
func NewResolver(remote Remote, logger *slog.Logger) *Resolver {
	return &Resolver{remote: remote, logger: logger, timeout: 2 * time.Second}
}

// Resolve returns the tier for points.
func (r *Resolver) Resolve(ctx context.Context, points int) Tier {
	local := For(points)
	if r == nil || r.remote == nil {
		return local
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	log := logging.FromContext(ctx, r.logger)
	label, err := r.remote.TierForPoints(callCtx, points)
	if err != nil {
		log.Warn("tier rpc failed, using local calculation", slog.Int("points", points), slog.Any("error", err))
		return local
	}
	remote, ok := Parse(label)
	if !ok || remote != local {
		log.Error("tier rpc disagrees with local calculation",
			slog.Int("points", points),
			slog.String("remote", label),
			slog.String("local", local.String()),
		)
	}
	return local
}
