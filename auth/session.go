package auth

import "time"

// SessionState tracks the kiosk login lifecycle. At most one non-terminal
// session exists per kiosk.
type SessionState int

const (
	SessionNone SessionState = iota
	SessionActive
	SessionExpired
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionNone:
		return "none"
	case SessionActive:
		return "active"
	case SessionExpired:
		return "expired"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// session is the single kiosk login. Owned and mutated only by Service
// under its mutex; the zero value is the None state.
type session struct {
	employee       *Employee
	startedAt      time.Time
	lastActivityAt time.Time
	state          SessionState
}
