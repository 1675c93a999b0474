package reader

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sstallion/go-hid"
)

// HID reads raw reports from a USB HID badge reader through hidapi. The
// reader firmware types the card id as keystrokes, so each report carries
// printable ASCII terminated by CR or LF.
type HID struct {
	dev *hid.Device
}

// OpenHID enumerates attached HID devices and opens the first match. An
// exact vendor/product pair wins; otherwise the product string of every
// attached device is matched against the configured reader names.
func OpenHID(cfg Config) (*HID, error) {
	vid, pid := cfg.VendorID, cfg.ProductID
	if vid == 0 && pid == 0 {
		vid, pid = DefaultVendorID, DefaultProductID
	}
	names := cfg.Names
	if len(names) == 0 {
		names = DefaultNames
	}

	var path, product string

	_ = hid.Enumerate(vid, pid, func(info *hid.DeviceInfo) error {
		if path == "" {
			path = info.Path
			product = info.ProductStr
		}
		return nil
	})

	if path == "" {
		_ = hid.Enumerate(hid.VendorIDAny, hid.ProductIDAny, func(info *hid.DeviceInfo) error {
			if path != "" {
				return nil
			}
			for _, name := range names {
				if name != "" && strings.Contains(info.ProductStr, name) {
					path = info.Path
					product = info.ProductStr
					break
				}
			}
			return nil
		})
	}

	if path == "" {
		return nil, ErrDeviceUnavailable
	}

	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrConnectionFailed, path, err)
	}
	if err := dev.SetNonblock(true); err != nil {
		dev.Close()
		return nil, fmt.Errorf("%w: set nonblocking: %v", ErrConnectionFailed, err)
	}

	log.Printf("Opened HID reader %q", product)
	return &HID{dev: dev}, nil
}

// Read implements Device.
func (h *HID) Read(buf []byte, timeout time.Duration) (int, error) {
	return h.dev.ReadWithTimeout(buf, timeout)
}

// Close implements Device.
func (h *HID) Close() error {
	if h.dev == nil {
		return nil
	}
	return h.dev.Close()
}
