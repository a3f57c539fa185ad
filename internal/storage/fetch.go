package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HTTPFetcher downloads presigned URLs with fiber's client.
type HTTPFetcher struct {
	timeout  time.Duration
	maxBytes int
}

// NewHTTPFetcher limits each download to maxBytes and timeout.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{timeout: timeout, maxBytes: int(maxBytes)}
}

// Fetch performs a GET on url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout || timeout <= 0 {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	code, body, errs := fiber.Get(url).Timeout(timeout).MaxRedirectsCount(3).Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("fetch object: %w", errs[0])
	}
	switch {
	case code == http.StatusNotFound:
		return nil, ErrNotFound
	case code >= 300:
		return nil, fmt.Errorf("fetch object: unexpected status %d", code)
	case f.maxBytes > 0 && len(body) > f.maxBytes:
		return nil, ErrTooLarge
	}
	return body, nil
}

// RoutingFetcher resolves memory:// URLs locally and everything else over HTTP.
type RoutingFetcher struct {
	Memory *MemoryStore
	HTTP   Fetcher
}

// Fetch dispatches on the URL scheme.
func (r RoutingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if strings.HasPrefix(url, memoryScheme) {
		if r.Memory == nil {
			return nil, fmt.Errorf("memory store not configured")
		}
		return r.Memory.Fetch(ctx, url)
	}
	if r.HTTP == nil {
		return nil, fmt.Errorf("http fetcher not configured")
	}
	return r.HTTP.Fetch(ctx, url)
}
