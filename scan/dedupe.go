package scan

import "time"

// DefaultSuppressionWindow is how long an identical repeated token is
// ignored after it was first accepted.
const DefaultSuppressionWindow = 2 * time.Second

// Deduper rejects a token equal to the immediately preceding one when it
// arrives inside the suppression window. A card held against the reader
// produces a burst of identical reports; only the first should become an
// event.
type Deduper struct {
	window   time.Duration
	lastTok  string
	lastTime time.Time
}

// NewDeduper creates a deduper. window <= 0 selects the default window.
func NewDeduper(window time.Duration) *Deduper {
	if window <= 0 {
		window = DefaultSuppressionWindow
	}
	return &Deduper{window: window}
}

// Accept reports whether token should pass through at the given time,
// recording it as the new reference point when it does.
func (d *Deduper) Accept(token string, now time.Time) bool {
	if token == d.lastTok && now.Sub(d.lastTime) < d.window {
		return false
	}
	d.lastTok = token
	d.lastTime = now
	return true
}
