package waitlist

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tamweel-auto/waitlist/internal/tier"
)

// SessionStore keeps the last confirmation per browser session so the
// confirmation view survives a reload.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, c Confirmation) error
	Load(ctx context.Context, sessionID string) (Confirmation, error)
}

const (
	sessionPrefix = "waitlist:confirmation:v1:"

	fieldReferralCode = "referralCode"
	fieldPosition     = "position"
	fieldPoints       = "points"
	fieldStatusID     = "statusId"
	fieldTier         = "tier"
	fieldCapturedAt   = "capturedAt"
)

// RedisSessionStore stores confirmations as Redis hashes that expire after ttl.
type RedisSessionStore struct {
	cache *redis.Client
	ttl   time.Duration
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(cache *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{cache: cache, ttl: ttl}
}

func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, c Confirmation) error {
	key := sessionPrefix + sessionID
	_, err := s.cache.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			fieldReferralCode, c.ReferralCode,
			fieldPosition, c.Position,
			fieldPoints, c.Points,
			fieldStatusID, c.StatusID,
			fieldTier, c.Tier.String(),
			fieldCapturedAt, c.CapturedAt.UTC().Format(time.RFC3339Nano),
		)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (Confirmation, error) {
	fields, err := s.cache.HGetAll(ctx, sessionPrefix+sessionID).Result()
	if err != nil {
		return Confirmation{}, err
	}
	if len(fields) == 0 {
		return Confirmation{}, ErrSessionNotFound
	}
	c := Confirmation{
		ReferralCode: fields[fieldReferralCode],
		StatusID:     fields[fieldStatusID],
	}
	if c.Position, err = strconv.Atoi(fields[fieldPosition]); err != nil {
		return Confirmation{}, err
	}
	if c.Points, err = strconv.Atoi(fields[fieldPoints]); err != nil {
		return Confirmation{}, err
	}
	if c.CapturedAt, err = time.Parse(time.RFC3339Nano, fields[fieldCapturedAt]); err != nil {
		return Confirmation{}, err
	}
	t, ok := tier.Parse(fields[fieldTier])
	if !ok {
		t = tier.For(c.Points)
	}
	c.Tier = t
	return c, nil
}

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Confirmation
}

// NewMemorySessionStore returns a process-local session store.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]Confirmation)}
}

func (s *memorySessionStore) Save(_ context.Context, sessionID string, c Confirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = c
	return nil
}

func (s *memorySessionStore) Load(_ context.Context, sessionID string) (Confirmation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sessions[sessionID]
	if !ok {
		return Confirmation{}, ErrSessionNotFound
	}
	return c, nil
}
