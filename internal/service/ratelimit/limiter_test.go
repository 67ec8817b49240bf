package ratelimit

import (
	"testing"
	"time"
)

func TestAllowDrainsAndRefills(t *testing.T) {
	l := New()
	now := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("k", 3, 1) {
			t.Fatalf("call %d should be allowed", i)
		}
	}
	if l.Allow("k", 3, 1) {
		t.Fatalf("bucket should be empty")
	}

	now = now.Add(2 * time.Second)
	if !l.Allow("k", 3, 1) {
		t.Fatalf("bucket should refill over time")
	}
}

func TestAllowIndependentKeys(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatalf("first call on a should pass")
	}
	if l.Allow("a", 1, 0) {
		t.Fatalf("a should be drained")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("b has its own bucket")
	}
}
