// Package reader manages the badge reader hardware: adapters for the
// supported device types and the Session that owns the polling goroutine
// turning raw reports into queued card tokens.
package reader

import (
	"errors"
	"fmt"
	"time"
)

// Default identity of the TS-HRW380 desktop reader the stations ship with.
const (
	DefaultVendorID  = 0x25DD
	DefaultProductID = 0x3000
)

// DefaultNames are the product-string fragments tried when no exact
// vendor/product match is attached.
var DefaultNames = []string{"TS-HRW"}

var (
	// ErrDeviceUnavailable means enumeration found no matching reader.
	ErrDeviceUnavailable = errors.New("no matching reader found")
	// ErrConnectionFailed means a matched reader could not be opened.
	ErrConnectionFailed = errors.New("reader open failed")
)

// Device is the minimal capability a reader adapter must provide. Read
// fills buf with the next raw report and returns n == 0 with a nil error
// when nothing arrived within timeout; a non-nil error is a genuine read
// failure, never a timeout.
type Device interface {
	Read(buf []byte, timeout time.Duration) (int, error)
	Close() error
}

// Config selects and parameterizes the reader hardware.
type Config struct {
	Type      string   `yaml:"type"`       // "hid", "evdev", "serial", "mock"
	VendorID  uint16   `yaml:"vendor_id"`  // exact HID match
	ProductID uint16   `yaml:"product_id"` // exact HID match
	Names     []string `yaml:"names"`      // product-string fallback match
	Device    string   `yaml:"device"`     // e.g. /dev/input/event0, /dev/ttyUSB0
	Baud      int      `yaml:"baud"`       // serial readers only

	MinTokenLength int `yaml:"min_token_length"` // default 6
	SuppressMS     int `yaml:"suppress_ms"`      // duplicate window, default 2000
	QueueSize      int `yaml:"queue_size"`       // unread scan backlog, default 10
}

// Open opens the reader hardware selected by cfg.
func Open(cfg Config) (Device, error) {
	switch cfg.Type {
	case "hid", "":
		return OpenHID(cfg)
	case "evdev":
		return OpenEvdev(cfg.Device)
	case "serial":
		return OpenSerial(cfg.Device, cfg.Baud)
	case "mock":
		return NewScriptedDevice(), nil
	default:
		return nil, fmt.Errorf("unknown reader type %q", cfg.Type)
	}
}
