package reader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kenshaw/evdev"
)

// Evdev adapts a keystroke-emulating reader that the kernel grabbed as an
// input device. Key presses are translated back into the ASCII bytes the
// badge firmware typed, with Enter mapped to LF so the decoder sees the
// same terminator as in a raw HID stream.
type Evdev struct {
	dev    *evdev.Evdev
	events <-chan *evdev.EventEnvelope
	cancel context.CancelFunc
}

// OpenEvdev opens the input device at the given path.
func OpenEvdev(device string) (*Evdev, error) {
	dev, err := evdev.OpenFile(device)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDeviceUnavailable
		}
		return nil, fmt.Errorf("%w: open evdev %s: %v", ErrConnectionFailed, device, err)
	}

	log.Printf("Opened input reader %s (vendor 0x%04x, product 0x%04x)",
		dev.Name(), dev.ID().Vendor, dev.ID().Product)

	ctx, cancel := context.WithCancel(context.Background())
	return &Evdev{dev: dev, events: dev.Poll(ctx), cancel: cancel}, nil
}

// Read implements Device. Key-down events arriving before the timeout each
// contribute one byte to buf; Enter completes the report early.
func (e *Evdev) Read(buf []byte, timeout time.Duration) (int, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	n := 0
	for n < len(buf) {
		select {
		case <-deadline.C:
			return n, nil
		case ev, ok := <-e.events:
			if !ok || ev == nil {
				if n > 0 {
					return n, nil
				}
				return 0, errors.New("input device closed")
			}
			if _, isKey := ev.Type.(evdev.KeyType); !isKey || ev.Value != 1 {
				continue
			}
			if ev.Type == evdev.KeyEnter {
				buf[n] = '\n'
				return n + 1, nil
			}
			if s := evdev.KeyType(ev.Code).String(); len(s) == 1 {
				buf[n] = s[0]
				n++
			}
		}
	}
	return n, nil
}

// Close implements Device.
func (e *Evdev) Close() error {
	e.cancel()
	if e.dev == nil {
		return nil
	}
	return e.dev.Close()
}
