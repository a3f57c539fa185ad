package documents

import (
	"fmt"
	"maps"
	"sync"
	"time"
)

type trackedUpload struct {
	upload    Upload
	converted bool
}

// Tracker holds the live state of every upload keyed by id. Readers get
// copies; all writes go through Update so the lifecycle rules hold:
// transitions follow the state machine, converting is entered at most once,
// progress never decreases and is 100 only once completed.
type Tracker struct {
	mu         sync.RWMutex
	uploads    map[string]*trackedUpload
	order      []string
	maxTracked int
	subs       map[int]func(Upload)
	nextSub    int
	now        func() time.Time
}

// NewTracker builds a tracker. maxTracked > 0 bounds the map by evicting the
// oldest finished uploads.
func NewTracker(maxTracked int) *Tracker {
	return &Tracker{
		uploads:    make(map[string]*trackedUpload),
		maxTracked: maxTracked,
		subs:       make(map[int]func(Upload)),
		now:        time.Now,
	}
}

// Add starts tracking u, which must be in the uploading state.
func (t *Tracker) Add(u Upload) error {
	if u.Status != StatusUploading {
		return fmt.Errorf("%w: new upload must start as %s", ErrInvalidTransition, StatusUploading)
	}
	now := t.now().UTC()
	u.Progress = 0
	u.CreatedAt, u.UpdatedAt = now, now

	t.mu.Lock()
	if _, exists := t.uploads[u.ID]; exists {
		t.mu.Unlock()
		return fmt.Errorf("upload %s already tracked", u.ID)
	}
	t.uploads[u.ID] = &trackedUpload{upload: u}
	t.order = append(t.order, u.ID)
	t.evictLocked()
	subs := t.subscribersLocked()
	t.mu.Unlock()

	notify(subs, copyUpload(u))
	return nil
}

// Get returns a copy of the upload.
func (t *Tracker) Get(id string) (Upload, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.uploads[id]
	if !ok {
		return Upload{}, false
	}
	return copyUpload(entry.upload), true
}

// List returns copies of all uploads in the order they were added.
func (t *Tracker) List() []Upload {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Upload, 0, len(t.order))
	for _, id := range t.order {
		if entry, ok := t.uploads[id]; ok {
			out = append(out, copyUpload(entry.upload))
		}
	}
	return out
}

// Update applies fn to a copy of the upload and stores the result if it
// respects the lifecycle rules. ErrUnknownUpload means the upload was removed
// and the caller's change is stale.
func (t *Tracker) Update(id string, fn func(*Upload)) (Upload, error) {
	t.mu.Lock()
	entry, ok := t.uploads[id]
	if !ok {
		t.mu.Unlock()
		return Upload{}, ErrUnknownUpload
	}

	prev := entry.upload
	next := copyUpload(prev)
	fn(&next)
	next.ID, next.CreatedAt = prev.ID, prev.CreatedAt

	if next.Status != prev.Status {
		if !canTransition(prev.Status, next.Status) {
			t.mu.Unlock()
			return copyUpload(prev), fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev.Status, next.Status)
		}
		if next.Status == StatusConverting {
			if entry.converted {
				t.mu.Unlock()
				return copyUpload(prev), fmt.Errorf("%w: upload already converted", ErrInvalidTransition)
			}
			entry.converted = true
		}
	}

	next.Progress = max(next.Progress, prev.Progress)
	if next.Status == StatusCompleted {
		next.Progress = 100
	} else if next.Progress >= 100 {
		next.Progress = 99
	}
	next.ConversionProgress = min(max(next.ConversionProgress, 0), 100)
	next.UpdatedAt = t.now().UTC()

	entry.upload = next
	subs := t.subscribersLocked()
	t.mu.Unlock()

	snapshot := copyUpload(next)
	notify(subs, snapshot)
	return snapshot, nil
}

// Remove stops tracking id.
func (t *Tracker) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.uploads[id]; !ok {
		return false
	}
	delete(t.uploads, id)
	t.dropOrderLocked(id)
	return true
}

// Subscribe registers fn for every change. fn runs outside the lock on the
// goroutine that made the change. The returned func unsubscribes.
func (t *Tracker) Subscribe(fn func(Upload)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// Len reports how many uploads are tracked.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.uploads)
}

func (t *Tracker) evictLocked() {
	if t.maxTracked <= 0 {
		return
	}
	for i := 0; len(t.uploads) > t.maxTracked && i < len(t.order); {
		id := t.order[i]
		if entry, ok := t.uploads[id]; ok && entry.upload.Status.Terminal() {
			delete(t.uploads, id)
			t.order = append(t.order[:i], t.order[i+1:]...)
			continue
		}
		i++
	}
}

func (t *Tracker) dropOrderLocked(id string) {
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

func (t *Tracker) subscribersLocked() []func(Upload) {
	if len(t.subs) == 0 {
		return nil
	}
	out := make([]func(Upload), 0, len(t.subs))
	for _, fn := range t.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Upload), u Upload) {
	for _, fn := range subs {
		fn(copyUpload(u))
	}
}

func copyUpload(u Upload) Upload {
	if u.ExtractedData != nil {
		u.ExtractedData = maps.Clone(u.ExtractedData)
	}
	return u
}
