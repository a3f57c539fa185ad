package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

const memoryScheme = "memory://"

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore is an in-process BlobStore for development and tests. Its
// signed URLs use the memory:// scheme and are resolved by its own Fetch.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject), now: time.Now}
}

// Put stores a copy of data.
func (s *MemoryStore) Put(_ context.Context, path string, data []byte, contentType string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty object path")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return path, nil
}

// SignedURL returns a memory:// URL carrying its expiry.
func (s *MemoryStore) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[path]
	s.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	expires := s.now().Add(ttl).Unix()
	return fmt.Sprintf("%s%s?expires=%d", memoryScheme, url.PathEscape(path), expires), nil
}

// Fetch resolves a URL produced by SignedURL.
func (s *MemoryStore) Fetch(_ context.Context, raw string) ([]byte, error) {
	if !strings.HasPrefix(raw, memoryScheme) {
		return nil, fmt.Errorf("unsupported url %q", raw)
	}
	rest := strings.TrimPrefix(raw, memoryScheme)
	escaped, query, _ := strings.Cut(rest, "?")
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, err
	}
	if values, err := url.ParseQuery(query); err == nil {
		var expires int64
		if _, err := fmt.Sscan(values.Get("expires"), &expires); err == nil && s.now().Unix() > expires {
			return nil, fmt.Errorf("signed url expired")
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[path]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

// Len reports the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
