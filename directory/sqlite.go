package directory

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "modernc.org/sqlite"

	"badgekiosk/auth"
)

// SQLiteConfig holds the local database settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// SQLite looks employees up in the station's local database. The schema is
// ensured on open so a freshly provisioned station comes up without a
// separate migration step.
type SQLite struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS employees (
	id          INTEGER PRIMARY KEY,
	badge       TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	role        TEXT NOT NULL DEFAULT 'worker',
	permissions TEXT NOT NULL DEFAULT '',
	active      INTEGER NOT NULL DEFAULT 1,
	language    TEXT NOT NULL DEFAULT 'de',
	last_login  TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_employees_name ON employees(name);

CREATE TABLE IF NOT EXISTS time_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	employee_id INTEGER NOT NULL REFERENCES employees(id),
	kind        TEXT NOT NULL,
	logged_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// OpenSQLite opens (creating if necessary) the database at cfg.Path.
func OpenSQLite(cfg SQLiteConfig) (*SQLite, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// LookupEmployee implements auth.Directory. The identifier matches either
// the badge or the employee name (manual-identity fallback).
func (s *SQLite) LookupEmployee(identifier string) (*auth.Employee, error) {
	row := s.db.QueryRow(`
		SELECT id, name, role, permissions, active, language
		FROM employees
		WHERE badge = ? OR name = ?
		LIMIT 1`, identifier, identifier)

	var (
		emp    auth.Employee
		perms  string
		active int
	)
	err := row.Scan(&emp.ID, &emp.Name, &emp.Role, &perms, &active, &emp.Language)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup employee: %w", err)
	}
	emp.Active = active != 0
	if perms != "" {
		emp.Permissions = strings.Split(perms, ",")
	}
	return &emp, nil
}

// RecordLastLogin implements auth.Directory. Failures are logged, not
// returned; a broken audit column must not block a login.
func (s *SQLite) RecordLastLogin(employeeID int) {
	if _, err := s.db.Exec(
		`UPDATE employees SET last_login = CURRENT_TIMESTAMP WHERE id = ?`,
		employeeID,
	); err != nil {
		log.Printf("directory: record last login for %d: %v", employeeID, err)
	}
}

// RecordClockEvent implements auth.Directory.
func (s *SQLite) RecordClockEvent(employeeID int, kind auth.ClockKind) {
	if _, err := s.db.Exec(
		`INSERT INTO time_log (employee_id, kind) VALUES (?, ?)`,
		employeeID, string(kind),
	); err != nil {
		log.Printf("directory: record clock %s for %d: %v", kind, employeeID, err)
	}
}

// UpsertEmployee writes an employee record, keyed by badge. Used by the
// provisioning script and tests.
func (s *SQLite) UpsertEmployee(badge string, emp auth.Employee) error {
	active := 0
	if emp.Active {
		active = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO employees (id, badge, name, role, permissions, active, language)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(badge) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			permissions = excluded.permissions,
			active = excluded.active,
			language = excluded.language`,
		emp.ID, badge, emp.Name, emp.Role, strings.Join(emp.Permissions, ","), active, emp.Language)
	if err != nil {
		return fmt.Errorf("upsert employee %q: %w", badge, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
