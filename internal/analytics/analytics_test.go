package analytics

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tamweel-auto/waitlist/internal/logging"
)

func TestDebouncerFiresLatestOnly(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	defer d.Stop()

	var (
		mu  sync.Mutex
		got []int
	)
	done := make(chan struct{}, 3)
	for i := 1; i <= 3; i++ {
		i := i
		d.Schedule("slider", func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			done <- struct{}{}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("debounced call never fired")
	}
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("expected only the last call to fire, got %v", got)
	}
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var fired atomic.Int32
	var wg sync.WaitGroup
	wg.Add(2)
	d.Schedule("a", func() { fired.Add(1); wg.Done() })
	d.Schedule("b", func() { fired.Add(1); wg.Done() })
	wg.Wait()
	if fired.Load() != 2 {
		t.Fatalf("expected both keys to fire, got %d", fired.Load())
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var fired atomic.Bool
	d.Schedule("a", func() { fired.Store(true) })
	d.Stop()
	d.Schedule("a", func() { fired.Store(true) })
	time.Sleep(200 * time.Millisecond)
	if fired.Load() {
		t.Fatalf("stopped debouncer must not fire")
	}
	if d.Pending() != 0 {
		t.Fatalf("expected nothing pending after stop")
	}
}

type recordingTracker struct {
	mu     sync.Mutex
	events []Event
	seen   chan struct{}
}

func (r *recordingTracker) Track(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	r.seen <- struct{}{}
	return nil
}

func TestCalculatorHandlerCoalescesBursts(t *testing.T) {
	tracker := &recordingTracker{seen: make(chan struct{}, 5)}
	d := NewDebouncer(100 * time.Millisecond)
	defer d.Stop()
	app := fiber.New()
	app.Post("/calculator", NewHandler(tracker, d, logging.Discard()).Calculator)

	for _, points := range []string{"120", "260", "610"} {
		req := httptest.NewRequest(fiber.MethodPost, "/calculator", strings.NewReader(`{"sessionId":"s1","points":`+points+`}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != fiber.StatusAccepted {
			t.Fatalf("expected 202 got %d", resp.StatusCode)
		}
	}

	select {
	case <-tracker.seen:
	case <-time.After(time.Second):
		t.Fatalf("no event tracked")
	}
	time.Sleep(200 * time.Millisecond)

	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if len(tracker.events) != 1 {
		t.Fatalf("expected one coalesced event, got %d", len(tracker.events))
	}
	if tracker.events[0].Properties["tier"] != "VIP Access" {
		t.Fatalf("expected last value to win, got %+v", tracker.events[0].Properties)
	}
}
