package tier

import (
	"context"
	"errors"
	"testing"

	"github.com/tamweel-auto/waitlist/internal/logging"
)

func TestForBoundaries(t *testing.T) {
	tests := []struct {
		points int
		want   Tier
	}{
		{-5, Standard},
		{0, Standard},
		{100, Standard},
		{249, Standard},
		{250, FastTrack},
		{399, FastTrack},
		{400, EarlyAccess},
		{599, EarlyAccess},
		{600, VIPAccess},
		{10_000, VIPAccess},
	}
	for _, tt := range tests {
		if got := For(tt.points); got != tt.want {
			t.Fatalf("For(%d) = %s, want %s", tt.points, got, tt.want)
		}
	}
}

func TestForIsMonotonicAndTotal(t *testing.T) {
	prev := For(0)
	for p := 1; p <= 1000; p++ {
		got := For(p)
		if got < prev {
			t.Fatalf("tier decreased at %d: %s -> %s", p, prev, got)
		}
		if got < Standard || got > VIPAccess {
			t.Fatalf("tier out of range at %d: %d", p, got)
		}
		prev = got
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, tr := range []Tier{Standard, FastTrack, EarlyAccess, VIPAccess} {
		parsed, ok := Parse(tr.String())
		if !ok || parsed != tr {
			t.Fatalf("parse %q: got %s %v", tr.String(), parsed, ok)
		}
	}
	if got, ok := Parse("vip_access"); !ok || got != VIPAccess {
		t.Fatalf("expected snake case label to parse")
	}
	if _, ok := Parse("platinum"); ok {
		t.Fatalf("expected unknown label to fail")
	}
}

type stubRemote struct {
	label string
	err   error
	calls int
}

func (s *stubRemote) TierForPoints(context.Context, int) (string, error) {
	s.calls++
	return s.label, s.err
}

func TestResolverFallsBackWhenRemoteFails(t *testing.T) {
	remote := &stubRemote{err: errors.New("connection refused")}
	r := NewResolver(remote, logging.Discard())

	if got := r.Resolve(context.Background(), 450); got != EarlyAccess {
		t.Fatalf("expected local early access, got %s", got)
	}
	if remote.calls != 1 {
		t.Fatalf("expected one remote call, got %d", remote.calls)
	}
}

func TestResolverKeepsLocalOnDisagreement(t *testing.T) {
	// A remote still on the 1000/500/200 scale would call 450 Fast Track.
	remote := &stubRemote{label: "Fast Track"}
	r := NewResolver(remote, logging.Discard())

	if got := r.Resolve(context.Background(), 450); got != EarlyAccess {
		t.Fatalf("expected local early access, got %s", got)
	}
}

func TestResolverWithoutRemote(t *testing.T) {
	var r *Resolver
	if got := r.Resolve(context.Background(), 600); got != VIPAccess {
		t.Fatalf("expected vip access, got %s", got)
	}
}
