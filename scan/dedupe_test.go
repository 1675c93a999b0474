package scan

import (
	"testing"
	"time"
)

func TestDeduperSuppressesRepeatWithinWindow(t *testing.T) {
	d := NewDeduper(2 * time.Second)
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	if !d.Accept("1234567890", t0) {
		t.Fatal("first token must be accepted")
	}
	if d.Accept("1234567890", t0.Add(500*time.Millisecond)) {
		t.Error("identical token inside window must be rejected")
	}
	if d.Accept("1234567890", t0.Add(1999*time.Millisecond)) {
		t.Error("identical token just inside window must be rejected")
	}
}

func TestDeduperAcceptsAfterWindow(t *testing.T) {
	d := NewDeduper(2 * time.Second)
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	d.Accept("1234567890", t0)
	if !d.Accept("1234567890", t0.Add(2*time.Second)) {
		t.Error("identical token at window boundary must be accepted")
	}
}

func TestDeduperDifferentTokenAlwaysAccepted(t *testing.T) {
	d := NewDeduper(2 * time.Second)
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	d.Accept("AAAAAA", t0)
	if !d.Accept("BBBBBB", t0.Add(time.Millisecond)) {
		t.Error("different token must pass regardless of window")
	}
	// The window now tracks the new token.
	if d.Accept("BBBBBB", t0.Add(2*time.Millisecond)) {
		t.Error("repeat of the new token must be rejected")
	}
	if !d.Accept("AAAAAA", t0.Add(3*time.Millisecond)) {
		t.Error("alternating tokens must both pass")
	}
}
