package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMemoryStoreSignedURLRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	path, err := store.Put(ctx, "salary_certificate/abc.pdf", []byte("%PDF-1.7"), "application/pdf")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	u, err := store.SignedURL(ctx, path, time.Hour)
	if err != nil {
		t.Fatalf("signed url: %v", err)
	}
	if !strings.HasPrefix(u, memoryScheme) {
		t.Fatalf("unexpected url %s", u)
	}

	data, err := RoutingFetcher{Memory: store}.Fetch(ctx, u)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != "%PDF-1.7" {
		t.Fatalf("unexpected data %q", data)
	}
}

func TestMemoryStoreExpiredURL(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	if _, err := store.Put(ctx, "a.png", []byte{1}, "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	u, err := store.SignedURL(ctx, "a.png", time.Minute)
	if err != nil {
		t.Fatalf("signed url: %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := store.Fetch(ctx, u); err == nil {
		t.Fatalf("expected expired url to fail")
	}
}

func TestMemoryStoreUnknownPath(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.SignedURL(context.Background(), "missing", time.Minute); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("hello"))
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, 32)
	ctx := context.Background()

	data, err := f.Fetch(ctx, srv.URL+"/ok")
	if err != nil || string(data) != "hello" {
		t.Fatalf("fetch ok: %q %v", data, err)
	}
	if _, err := f.Fetch(ctx, srv.URL+"/missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.Fetch(ctx, srv.URL+"/big"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}
