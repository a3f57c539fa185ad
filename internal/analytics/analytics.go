// Package analytics records product events such as calculator interactions.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tamweel-auto/waitlist/internal/logging"
)

// EventCalculatorChanged is emitted once a slider settles.
const EventCalculatorChanged = "calculator_changed"

// Event is a single analytics record.
type Event struct {
	Name       string         `json:"name"`
	SessionID  string         `json:"sessionId,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// Tracker accepts events. Implementations must not block callers for long.
type Tracker interface {
	Track(ctx context.Context, event Event) error
}

// LoggerTracker writes events to the structured logger.
type LoggerTracker struct {
	logger *slog.Logger
}

// NewLoggerTracker constructs a logging tracker.
func NewLoggerTracker(logger *slog.Logger) *LoggerTracker {
	return &LoggerTracker{logger: logger}
}

func (t *LoggerTracker) Track(ctx context.Context, event Event) error {
	if t == nil || t.logger == nil {
		return nil
	}
	attrs := []any{
		slog.String("event", event.Name),
		slog.Time("occurred_at", event.OccurredAt),
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}
	if len(event.Properties) > 0 {
		attrs = append(attrs, slog.Any("properties", event.Properties))
	}
	logging.FromContext(ctx, t.logger).Info("analytics event", attrs...)
	return nil
}

// Debouncer coalesces bursts of calls per key. Only the most recently
// scheduled function for a key runs, once the window has passed without a
// newer call.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	seq     map[string]uint64
	stopped bool
}

// NewDebouncer builds a debouncer. A non-positive window means one second.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = time.Second
	}
	return &Debouncer{
		window: window,
		timers: make(map[string]*time.Timer),
		seq:    make(map[string]uint64),
	}
}

// Schedule replaces any pending call for key with fn.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.seq[key]++
	n := d.seq[key]
	d.timers[key] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		// a timer that lost the race with a newer Schedule must not fire
		if d.stopped || d.seq[key] != n {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		delete(d.seq, key)
		d.mu.Unlock()
		fn()
	})
}

// Pending reports how many keys have a scheduled call.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels every pending call. Later Schedule calls are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
