package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNoClients is returned by a Selector with nothing to call.
var ErrNoClients = errors.New("no gemini clients configured")

// Selector spreads requests across several API keys round-robin and fails
// over to the next key when one errors.
type Selector struct {
	mu      sync.Mutex
	clients []Extractor
	next    int
	logger  *slog.Logger
}

// NewSelector wraps already-built extractors.
func NewSelector(logger *slog.Logger, clients ...Extractor) *Selector {
	return &Selector{clients: clients, logger: logger}
}

// Dial builds one Client per key.
func Dial(ctx context.Context, apiKeys []string, modelName string, logger *slog.Logger) (*Selector, error) {
	clients := make([]Extractor, 0, len(apiKeys))
	for i, key := range apiKeys {
		c, err := NewClient(ctx, key, modelName)
		if err != nil {
			return nil, fmt.Errorf("gemini client %d: %w", i, err)
		}
		clients = append(clients, c)
	}
	return NewSelector(logger, clients...), nil
}

func (s *Selector) pick() (Extractor, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.next
	s.next = (s.next + 1) % len(s.clients)
	return s.clients[idx], idx
}

// ExtractJSON tries each client at most once, starting with the next in turn.
func (s *Selector) ExtractJSON(ctx context.Context, prompt string, attachments ...Attachment) (map[string]any, error) {
	if len(s.clients) == 0 {
		return nil, ErrNoClients
	}

	var lastErr error
	for attempt := 0; attempt < len(s.clients); attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		client, idx := s.pick()
		out, err := client.ExtractJSON(ctx, prompt, attachments...)
		if err == nil {
			return out, nil
		}
		lastErr = err
		s.logger.Warn("gemini request failed, trying next client",
			slog.Int("client_index", idx),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)
	}
	return nil, fmt.Errorf("all %d gemini clients failed: %w", len(s.clients), lastErr)
}

// Close closes every client that holds a connection.
func (s *Selector) Close() error {
	var errs []error
	for _, c := range s.clients {
		if closer, ok := c.(interface{ Close() error }); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}
