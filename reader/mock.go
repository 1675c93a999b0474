package reader

import (
	"sync"
	"time"
)

// ScriptStep is one Read outcome replayed by a ScriptedDevice.
type ScriptStep struct {
	Data []byte
	Err  error
}

// ScriptedDevice replays canned reports in place of real hardware. Tests
// drive it directly; the "mock" reader type uses an empty script so a
// station can run without a reader attached.
type ScriptedDevice struct {
	mu     sync.Mutex
	steps  []ScriptStep
	closed int
}

// NewScriptedDevice creates a device that replays the given steps in order.
func NewScriptedDevice(steps ...ScriptStep) *ScriptedDevice {
	return &ScriptedDevice{steps: steps}
}

// Append adds steps to the end of the script.
func (d *ScriptedDevice) Append(steps ...ScriptStep) {
	d.mu.Lock()
	d.steps = append(d.steps, steps...)
	d.mu.Unlock()
}

// Read implements Device. An exhausted script behaves like an idle reader:
// a short sleep, then a zero-length report.
func (d *ScriptedDevice) Read(buf []byte, timeout time.Duration) (int, error) {
	d.mu.Lock()
	if len(d.steps) == 0 {
		d.mu.Unlock()
		wait := timeout
		if wait > 5*time.Millisecond {
			wait = 5 * time.Millisecond
		}
		time.Sleep(wait)
		return 0, nil
	}
	step := d.steps[0]
	d.steps = d.steps[1:]
	d.mu.Unlock()

	if step.Err != nil {
		return 0, step.Err
	}
	return copy(buf, step.Data), nil
}

// Close implements Device.
func (d *ScriptedDevice) Close() error {
	d.mu.Lock()
	d.closed++
	d.mu.Unlock()
	return nil
}

// CloseCount returns how many times Close was called.
func (d *ScriptedDevice) CloseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
