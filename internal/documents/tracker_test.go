package documents

import (
	"errors"
	"sync"
	"testing"
)

func newTracked(t *testing.T, tr *Tracker, id string) {
	t.Helper()
	if err := tr.Add(Upload{ID: id, Status: StatusUploading}); err != nil {
		t.Fatalf("add %s: %v", id, err)
	}
}

func TestTrackerRejectsSkippedStates(t *testing.T) {
	tr := NewTracker(0)
	newTracked(t, tr, "a")

	if _, err := tr.Update("a", func(u *Upload) { u.Status = StatusCompleted }); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected uploading -> completed to be rejected, got %v", err)
	}
	if _, err := tr.Update("a", func(u *Upload) { u.Status = StatusConverting }); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected uploading -> converting to be rejected, got %v", err)
	}
	if err := tr.Add(Upload{ID: "b", Status: StatusProcessing}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected new upload outside uploading to be rejected, got %v", err)
	}
}

func TestTrackerConvertsOnce(t *testing.T) {
	tr := NewTracker(0)
	newTracked(t, tr, "a")

	steps := []Status{StatusProcessing, StatusConverting, StatusProcessing}
	for _, s := range steps {
		if _, err := tr.Update("a", func(u *Upload) { u.Status = s }); err != nil {
			t.Fatalf("transition to %s: %v", s, err)
		}
	}
	if _, err := tr.Update("a", func(u *Upload) { u.Status = StatusConverting }); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected second conversion to be rejected, got %v", err)
	}
	if _, err := tr.Update("a", func(u *Upload) { u.Status = StatusCompleted }); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := tr.Update("a", func(u *Upload) { u.Status = StatusFailed }); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected terminal state to be final, got %v", err)
	}
}

func TestTrackerProgressRules(t *testing.T) {
	tr := NewTracker(0)
	newTracked(t, tr, "a")

	u, _ := tr.Update("a", func(u *Upload) { u.Progress = 70 })
	if u.Progress != 70 {
		t.Fatalf("expected 70, got %d", u.Progress)
	}
	u, _ = tr.Update("a", func(u *Upload) { u.Progress = 30 })
	if u.Progress != 70 {
		t.Fatalf("progress must not decrease, got %d", u.Progress)
	}
	u, _ = tr.Update("a", func(u *Upload) {
		u.Status = StatusProcessing
		u.Progress = 100
	})
	if u.Progress == 100 {
		t.Fatalf("progress reached 100 before completion")
	}
	u, _ = tr.Update("a", func(u *Upload) { u.Status = StatusCompleted })
	if u.Progress != 100 {
		t.Fatalf("expected 100 at completion, got %d", u.Progress)
	}
}

func TestTrackerRemovedUpdatesAreStale(t *testing.T) {
	tr := NewTracker(0)
	newTracked(t, tr, "a")
	if !tr.Remove("a") {
		t.Fatalf("expected removal")
	}
	if _, err := tr.Update("a", func(u *Upload) { u.Progress = 50 }); !errors.Is(err, ErrUnknownUpload) {
		t.Fatalf("expected ErrUnknownUpload, got %v", err)
	}
	if tr.Remove("a") {
		t.Fatalf("second removal should report false")
	}
}

func TestTrackerEvictsOldestTerminal(t *testing.T) {
	tr := NewTracker(2)
	newTracked(t, tr, "done")
	tr.Update("done", func(u *Upload) { u.Status = StatusFailed })
	newTracked(t, tr, "live")
	newTracked(t, tr, "new")

	if _, ok := tr.Get("done"); ok {
		t.Fatalf("expected terminal upload to be evicted")
	}
	if _, ok := tr.Get("live"); !ok {
		t.Fatalf("in-flight upload must not be evicted")
	}
	if tr.Len() != 2 {
		t.Fatalf("expected 2 tracked, got %d", tr.Len())
	}
}

func TestTrackerConcurrentUploadsStayIndependent(t *testing.T) {
	tr := NewTracker(0)
	newTracked(t, tr, "a")
	newTracked(t, tr, "b")

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for p := 1; p <= 90; p++ {
				tr.Update(id, func(u *Upload) { u.Progress = p })
			}
		}(id)
	}
	wg.Wait()

	tr.Update("a", func(u *Upload) { u.Status = StatusFailed })
	a, _ := tr.Get("a")
	b, _ := tr.Get("b")
	if a.Status != StatusFailed || b.Status != StatusUploading {
		t.Fatalf("status leaked between uploads: a=%s b=%s", a.Status, b.Status)
	}
	if a.Progress != 90 || b.Progress != 90 {
		t.Fatalf("unexpected progress a=%d b=%d", a.Progress, b.Progress)
	}
}

func TestTrackerGetReturnsCopy(t *testing.T) {
	tr := NewTracker(0)
	newTracked(t, tr, "a")
	tr.Update("a", func(u *Upload) { u.ExtractedData = map[string]any{"k": "v"} })

	got, _ := tr.Get("a")
	got.ExtractedData["k"] = "mutated"

	again, _ := tr.Get("a")
	if again.ExtractedData["k"] != "v" {
		t.Fatalf("tracker state was mutated through a snapshot")
	}
}
