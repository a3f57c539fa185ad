// Package storage keeps uploaded documents and hands out time-bounded read URLs.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when an object or URL does not resolve.
	ErrNotFound = errors.New("object not found")
	// ErrTooLarge is returned by fetchers when the body exceeds their limit.
	ErrTooLarge = errors.New("object exceeds size limit")
)

// BlobStore writes objects and issues signed read URLs for them.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// Fetcher downloads the bytes behind a URL issued by a BlobStore.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
