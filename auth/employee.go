// Package auth turns card tokens and manual identities into an authorized,
// time-bounded kiosk session, defending against repeated bad credentials.
package auth

// Employee is a read-only record from the employee directory.
type Employee struct {
	ID          int
	Name        string
	Role        string
	Permissions []string
	Active      bool
	Language    string
}

// HasPermission reports whether the employee holds perm. A stored "*"
// grants everything.
func (e *Employee) HasPermission(perm string) bool {
	for _, p := range e.Permissions {
		if p == "*" || p == perm {
			return true
		}
	}
	return false
}

// ClockKind distinguishes time-log events.
type ClockKind string

const (
	ClockIn  ClockKind = "in"
	ClockOut ClockKind = "out"
)

// Directory is the employee lookup the kiosk authenticates against.
// LookupEmployee returns (nil, nil) when no record matches the identifier.
// RecordLastLogin and RecordClockEvent are fire-and-forget notifications;
// implementations swallow their own failures and must not block.
type Directory interface {
	LookupEmployee(identifier string) (*Employee, error)
	RecordLastLogin(employeeID int)
	RecordClockEvent(employeeID int, kind ClockKind)
}
