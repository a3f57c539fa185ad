package waitlist

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdentityIssuer hands out the server-generated parts of a new entrant.
// Every call must hit the source of truth; positions are never cached.
type IdentityIssuer interface {
	DisplayAlias(ctx context.Context) (string, error)
	NextPosition(ctx context.Context) (int, error)
	ReferralCode(ctx context.Context) (string, error)
}

// PostgresIssuer calls the database procedures that own the counters.
type PostgresIssuer struct {
	db *pgxpool.Pool
}

// NewPostgresIssuer builds an issuer backed by stored procedures.
func NewPostgresIssuer(db *pgxpool.Pool) *PostgresIssuer {
	return &PostgresIssuer{db: db}
}

func (p *PostgresIssuer) DisplayAlias(ctx context.Context) (string, error) {
	var alias string
	err := p.db.QueryRow(ctx, `SELECT generate_display_alias()`).Scan(&alias)
	return alias, err
}

func (p *PostgresIssuer) NextPosition(ctx context.Context) (int, error) {
	var pos int
	err := p.db.QueryRow(ctx, `SELECT get_next_waitlist_position()`).Scan(&pos)
	return pos, err
}

func (p *PostgresIssuer) ReferralCode(ctx context.Context) (string, error) {
	var code string
	err := p.db.QueryRow(ctx, `SELECT generate_referral_code()`).Scan(&code)
	return code, err
}

type memoryIssuer struct {
	mu       sync.Mutex
	position int
}

// NewMemoryIssuer returns a process-local issuer for dev and tests.
func NewMemoryIssuer() IdentityIssuer {
	return &memoryIssuer{}
}

func (m *memoryIssuer) DisplayAlias(context.Context) (string, error) {
	return "Driver-" + strings.ToUpper(uuid.NewString()[:4]), nil
}

func (m *memoryIssuer) NextPosition(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position++
	return m.position, nil
}

func (m *memoryIssuer) ReferralCode(context.Context) (string, error) {
	id := uuid.New()
	return fmt.Sprintf("%X", id[:4]), nil
}
