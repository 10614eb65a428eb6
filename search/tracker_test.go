package search

import "testing"

func TestTracker_CountsAndFlips(t *testing.T) {
	var flips []bool
	tr := NewTracker().OnChange(func(busy bool) { flips = append(flips, busy) })

	tr.Begin()
	tr.Begin()
	if tr.InFlight() != 2 || !tr.Busy() {
		t.Fatalf("expected 2 in flight, got %d", tr.InFlight())
	}
	tr.Done()
	if !tr.Busy() {
		t.Fatalf("expected still busy with one request left")
	}
	tr.Done()
	tr.Done()
	if tr.InFlight() != 0 {
		t.Fatalf("expected counter floored at 0, got %d", tr.InFlight())
	}

	if len(flips) != 2 || !flips[0] || flips[1] {
		t.Fatalf("expected [true false] transitions, got %v", flips)
	}
}

func TestTracker_Reset(t *testing.T) {
	var last *bool
	tr := NewTracker().OnChange(func(busy bool) { last = &busy })
	tr.Begin()
	tr.Begin()
	tr.Reset()

	if tr.Busy() {
		t.Fatalf("expected idle after reset")
	}
	if last == nil || *last {
		t.Fatalf("expected reset to report idle")
	}
}
