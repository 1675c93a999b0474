// Package directory provides the employee lookup backends a kiosk can
// authenticate against: the station's local sqlite database, the warehouse
// backend API, and an in-memory seed for tests and offline stations.
package directory

import (
	"fmt"

	"badgekiosk/auth"
)

// Config selects and parameterizes the directory backend.
type Config struct {
	Source    string         `yaml:"source"` // "sqlite", "api", "memory"
	SQLite    SQLiteConfig   `yaml:"sqlite"`
	API       APIConfig      `yaml:"api"`
	Employees []SeedEmployee `yaml:"employees"` // memory source only
}

// New creates the directory backend selected by cfg. The returned value
// may additionally implement io.Closer.
func New(cfg Config) (auth.Directory, error) {
	switch cfg.Source {
	case "sqlite":
		return OpenSQLite(cfg.SQLite)
	case "api":
		return NewAPI(cfg.API)
	case "memory", "":
		return NewMemory(cfg.Employees), nil
	default:
		return nil, fmt.Errorf("unknown directory source %q", cfg.Source)
	}
}
