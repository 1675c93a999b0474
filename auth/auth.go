package auth

import (
	"log"
	"sync"
	"time"
)

// Station policy defaults: five bad attempts inside fifteen minutes lock
// an identifier; an hour of inactivity expires the session.
const (
	DefaultMaxAttempts    = 5
	DefaultLockoutWindow  = 15 * time.Minute
	DefaultSessionTimeout = 60 * time.Minute
)

// Result classifies an authentication attempt.
type Result int

const (
	Success Result = iota
	Unauthorized
	Locked
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Unauthorized:
		return "unauthorized"
	case Locked:
		return "locked"
	default:
		return "unknown"
	}
}

// Options tune the Service. Zero values fall back to the defaults above;
// Now is the clock used for every window comparison and defaults to
// time.Now, tests inject a fake.
type Options struct {
	MaxAttempts    int
	LockoutWindow  time.Duration
	SessionTimeout time.Duration
	Now            func() time.Time
}

// Service authenticates badge tokens and manual identities against the
// directory, enforces the lockout policy and owns the single kiosk
// session. A single mutex guards the attempt history and the session so
// concurrent UI callbacks cannot split the invariants.
type Service struct {
	dir Directory
	now func() time.Time

	maxAttempts    int
	lockoutWindow  time.Duration
	sessionTimeout time.Duration

	mu       sync.Mutex
	attempts map[string][]time.Time
	sess     session
}

// NewService creates the authentication service.
func NewService(dir Directory, opts Options) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.LockoutWindow <= 0 {
		opts.LockoutWindow = DefaultLockoutWindow
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = DefaultSessionTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		dir:            dir,
		now:            opts.Now,
		maxAttempts:    opts.MaxAttempts,
		lockoutWindow:  opts.LockoutWindow,
		sessionTimeout: opts.SessionTimeout,
		attempts:       make(map[string][]time.Time),
	}
}

// Authenticate resolves identifier — badge token or manual identity —
// against the directory. A locked identifier is rejected before any
// directory lookup and without growing its attempt count; a successful
// login clears the identifier's failure history, replaces any existing
// session and notifies the directory of the login and clock-in.
func (s *Service) Authenticate(identifier string) (Result, *Employee) {
	s.mu.Lock()
	if len(s.pruneLocked(identifier, s.now())) >= s.maxAttempts {
		s.mu.Unlock()
		log.Printf("auth: %q locked out", identifier)
		return Locked, nil
	}
	s.mu.Unlock()

	// Directory lookup happens outside the lock; it may hit disk or the
	// network.
	emp, err := s.dir.LookupEmployee(identifier)

	s.mu.Lock()
	now := s.now()
	if err != nil || emp == nil || !emp.Active {
		s.attempts[identifier] = append(s.pruneLocked(identifier, now), now)
		s.mu.Unlock()
		switch {
		case err != nil:
			log.Printf("auth: lookup %q: %v", identifier, err)
		case emp != nil:
			log.Printf("auth: %q belongs to inactive employee %s", identifier, emp.Name)
		default:
			log.Printf("auth: unknown identifier %q", identifier)
		}
		return Unauthorized, nil
	}

	delete(s.attempts, identifier)
	s.sess = session{
		employee:       emp,
		startedAt:      now,
		lastActivityAt: now,
		state:          SessionActive,
	}
	s.mu.Unlock()

	s.dir.RecordLastLogin(emp.ID)
	s.dir.RecordClockEvent(emp.ID, ClockIn)
	log.Printf("auth: %s logged in (%s)", emp.Name, emp.Role)
	return Success, emp
}

// pruneLocked drops failure timestamps older than the lockout window and
// returns the remainder, oldest first. Caller holds mu.
func (s *Service) pruneLocked(identifier string, now time.Time) []time.Time {
	hist, ok := s.attempts[identifier]
	if !ok {
		return nil
	}
	cutoff := now.Add(-s.lockoutWindow)
	kept := hist[:0]
	for _, t := range hist {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(s.attempts, identifier)
		return nil
	}
	s.attempts[identifier] = kept
	return kept
}

// GetCurrentUser returns the logged-in employee. A session that idled past
// the timeout is expired and torn down on this access; detection is lazy,
// no background timer runs.
func (s *Service) GetCurrentUser() *Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Service) currentLocked() *Employee {
	if s.sess.state != SessionActive {
		return nil
	}
	if s.now().Sub(s.sess.lastActivityAt) > s.sessionTimeout {
		log.Printf("auth: session for %s expired", s.sess.employee.Name)
		s.sess.state = SessionExpired
		s.sess = session{}
		return nil
	}
	return s.sess.employee
}

// IsAuthenticated reports whether a non-expired session exists.
func (s *Service) IsAuthenticated() bool {
	return s.GetCurrentUser() != nil
}

// UpdateActivity refreshes the idle timer of an active session. No-op
// otherwise.
func (s *Service) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess.state == SessionActive {
		s.sess.lastActivityAt = s.now()
	}
}

// HasPermission reports whether the current user holds perm. False when
// nobody is logged in or the session has expired.
func (s *Service) HasPermission(perm string) bool {
	s.mu.Lock()
	emp := s.currentLocked()
	s.mu.Unlock()
	return emp != nil && emp.HasPermission(perm)
}

// Logout closes the session. The directory is told to clock the employee
// out when one was still logged in. Safe to call with no session.
func (s *Service) Logout() {
	s.mu.Lock()
	var emp *Employee
	if s.sess.state != SessionNone {
		if s.sess.state == SessionActive {
			emp = s.sess.employee
		}
		s.sess.state = SessionClosed
		s.sess = session{}
	}
	s.mu.Unlock()

	if emp != nil {
		s.dir.RecordClockEvent(emp.ID, ClockOut)
		log.Printf("auth: %s logged out", emp.Name)
	}
}

// RemainingLockout returns how long until identifier may try again, zero
// when it is not locked.
func (s *Service) RemainingLockout(identifier string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	recent := s.pruneLocked(identifier, now)
	if len(recent) < s.maxAttempts {
		return 0
	}
	return recent[0].Add(s.lockoutWindow).Sub(now)
}

// Unlock clears the failure history for identifier, reporting whether any
// history existed. Intended for supervisor intervention; the permission
// check belongs to the caller.
func (s *Service) Unlock(identifier string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[identifier]; !ok {
		return false
	}
	delete(s.attempts, identifier)
	log.Printf("auth: %q unlocked", identifier)
	return true
}

// Stats is a point-in-time summary for the station status screen.
type Stats struct {
	CurrentUser        string
	SessionStartedAt   time.Time
	TrackedIdentifiers int
	LockedIdentifiers  int
}

// Stats snapshots login statistics.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{}
	if emp := s.currentLocked(); emp != nil {
		st.CurrentUser = emp.Name
		st.SessionStartedAt = s.sess.startedAt
	}
	now := s.now()
	for id := range s.attempts {
		if len(s.pruneLocked(id, now)) == 0 {
			continue
		}
		st.TrackedIdentifiers++
		if len(s.attempts[id]) >= s.maxAttempts {
			st.LockedIdentifiers++
		}
	}
	return st
}
