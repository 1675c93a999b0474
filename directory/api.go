package directory

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"badgekiosk/auth"
)

// APIConfig holds warehouse backend settings.
type APIConfig struct {
	URL         string `yaml:"url"`
	CAFile      string `yaml:"ca_file"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// API queries the warehouse backend over HTTPS with basic auth.
type API struct {
	base     string
	username string
	password string
	client   *http.Client
}

// employeeRecord is the backend's wire shape for an employee.
type employeeRecord struct {
	ID          int      `json:"id"`
	Badge       string   `json:"badge"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Active      bool     `json:"active"`
	Language    string   `json:"language"`
}

// NewAPI creates a backend client. When cfg.CAFile is set the server
// certificate is verified against that CA only.
func NewAPI(cfg APIConfig) (*API, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	if cfg.CAFile != "" {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates in %s", cfg.CAFile)
		}
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		}
	}

	return &API{
		base:     cfg.URL,
		username: cfg.Username,
		password: cfg.Password,
		client:   client,
	}, nil
}

// LookupEmployee implements auth.Directory.
func (a *API) LookupEmployee(identifier string) (*auth.Employee, error) {
	u := fmt.Sprintf("%s/api/v1/employees/lookup?identifier=%s", a.base, url.QueryEscape(identifier))
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(a.username, a.password)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("lookup: backend returned %s", resp.Status)
	}

	var rec employeeRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode employee: %w", err)
	}
	return &auth.Employee{
		ID:          rec.ID,
		Name:        rec.Name,
		Role:        rec.Role,
		Permissions: rec.Permissions,
		Active:      rec.Active,
		Language:    rec.Language,
	}, nil
}

// RecordLastLogin implements auth.Directory. Failures are logged only.
func (a *API) RecordLastLogin(employeeID int) {
	u := fmt.Sprintf("%s/api/v1/employees/%d/last-login", a.base, employeeID)
	if err := a.post(u, nil); err != nil {
		log.Printf("directory: record last login for %d: %v", employeeID, err)
	}
}

// RecordClockEvent implements auth.Directory.
func (a *API) RecordClockEvent(employeeID int, kind auth.ClockKind) {
	u := fmt.Sprintf("%s/api/v1/employees/%d/clock", a.base, employeeID)
	body, _ := json.Marshal(map[string]string{"kind": string(kind)})
	if err := a.post(u, body); err != nil {
		log.Printf("directory: record clock %s for %d: %v", kind, employeeID, err)
	}
}

func (a *API) post(u string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(a.username, a.password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("backend returned %s", resp.Status)
	}
	return nil
}
