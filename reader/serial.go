package reader

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tarm/serial"
)

// Serial adapts the older serial wedge readers. The wedge emits the badge
// id as ASCII terminated by CR, so raw port reads feed the decoder
// directly.
type Serial struct {
	port *serial.Port
}

// OpenSerial opens the serial reader on the given port. baud 0 selects the
// wedge default of 9600.
func OpenSerial(device string, baud int) (*Serial, error) {
	if baud == 0 {
		baud = 9600
	}
	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDeviceUnavailable
		}
		return nil, fmt.Errorf("%w: open serial %s: %v", ErrConnectionFailed, device, err)
	}
	return &Serial{port: port}, nil
}

// Read implements Device. The port read timeout is shorter than any caller
// timeout, so the deadline is honored within one port cycle.
func (s *Serial) Read(buf []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	for {
		n, err := s.port.Read(buf)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		if !time.Now().Before(deadline) {
			return 0, nil
		}
	}
}

// Close implements Device.
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
