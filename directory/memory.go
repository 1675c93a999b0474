package directory

import (
	"strings"
	"sync"
	"time"

	"badgekiosk/auth"
)

// SeedEmployee is the yaml shape of a statically configured employee.
type SeedEmployee struct {
	ID          int      `yaml:"id"`
	Badge       string   `yaml:"badge"`
	Name        string   `yaml:"name"`
	Role        string   `yaml:"role"`
	Permissions []string `yaml:"permissions"`
	Active      bool     `yaml:"active"`
	Language    string   `yaml:"language"`
}

// ClockEntry is a recorded clock-in/out notification.
type ClockEntry struct {
	EmployeeID int
	Kind       auth.ClockKind
	At         time.Time
}

// Memory is an in-process directory seeded from config. Lookup matches
// either the badge token or the display name, covering the manual-identity
// fallback when no reader is attached.
type Memory struct {
	mu        sync.Mutex
	byBadge   map[string]auth.Employee
	byName    map[string]auth.Employee
	lastLogin map[int]time.Time
	clockLog  []ClockEntry
	now       func() time.Time
}

// NewMemory creates a memory directory from the seed list.
func NewMemory(seed []SeedEmployee) *Memory {
	m := &Memory{
		byBadge:   make(map[string]auth.Employee),
		byName:    make(map[string]auth.Employee),
		lastLogin: make(map[int]time.Time),
		now:       time.Now,
	}
	for _, s := range seed {
		emp := auth.Employee{
			ID:          s.ID,
			Name:        s.Name,
			Role:        s.Role,
			Permissions: append([]string(nil), s.Permissions...),
			Active:      s.Active,
			Language:    s.Language,
		}
		if s.Badge != "" {
			m.byBadge[s.Badge] = emp
		}
		if s.Name != "" {
			m.byName[strings.ToLower(s.Name)] = emp
		}
	}
	return m
}

// LookupEmployee implements auth.Directory. The returned record is a copy;
// callers cannot mutate the store through it.
func (m *Memory) LookupEmployee(identifier string) (*auth.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if emp, ok := m.byBadge[identifier]; ok {
		e := emp
		return &e, nil
	}
	if emp, ok := m.byName[strings.ToLower(identifier)]; ok {
		e := emp
		return &e, nil
	}
	return nil, nil
}

// RecordLastLogin implements auth.Directory.
func (m *Memory) RecordLastLogin(employeeID int) {
	m.mu.Lock()
	m.lastLogin[employeeID] = m.now()
	m.mu.Unlock()
}

// RecordClockEvent implements auth.Directory.
func (m *Memory) RecordClockEvent(employeeID int, kind auth.ClockKind) {
	m.mu.Lock()
	m.clockLog = append(m.clockLog, ClockEntry{EmployeeID: employeeID, Kind: kind, At: m.now()})
	m.mu.Unlock()
}

// LastLogin returns the recorded last login for an employee.
func (m *Memory) LastLogin(employeeID int) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.lastLogin[employeeID]
	return t, ok
}

// ClockEvents returns a copy of the recorded clock entries.
func (m *Memory) ClockEvents() []ClockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ClockEntry(nil), m.clockLog...)
}
