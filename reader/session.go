package reader

import (
	"log"
	"sync"
	"time"

	"badgekiosk/scan"
)

const (
	// readTimeout bounds the device read so the stop flag is seen promptly.
	readTimeout = 100 * time.Millisecond
	// joinTimeout bounds the wait for the polling goroutine on disconnect.
	joinTimeout = 2 * time.Second
	// maxReadErrors is how many consecutive read failures halt the loop.
	maxReadErrors = 3
)

// State of the reader connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Error
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot of the session for UI callers.
type Status struct {
	Connected  bool
	Monitoring bool
	State      State
	LastError  string
}

// OpenFunc opens the reader hardware for a session. Injected so tests can
// substitute a scripted device.
type OpenFunc func(Config) (Device, error)

// Session owns the device handle and the single polling goroutine that
// moves raw reports through decoding and duplicate suppression into the
// scan queue. All methods are safe for concurrent use; the queue is the
// only state shared with the polling goroutine.
type Session struct {
	cfg  Config
	open OpenFunc
	now  func() time.Time

	queue *scan.Queue

	mu        sync.Mutex
	state     State
	dev       Device
	stop      chan struct{}
	done      chan struct{}
	lastError string

	onStatus func(Status)
	monStop  chan struct{}
	monDone  chan struct{}
}

// NewSession creates a session that opens real hardware per cfg.
func NewSession(cfg Config) *Session {
	return NewSessionWith(cfg, Open)
}

// NewSessionWith creates a session with an injected device opener.
func NewSessionWith(cfg Config, open OpenFunc) *Session {
	return &Session{
		cfg:   cfg,
		open:  open,
		now:   time.Now,
		queue: scan.NewQueue(cfg.QueueSize),
	}
}

// Connect locates and opens the reader and starts the polling goroutine.
// Calling Connect on a connected session is a no-op. A Disconnect that
// arrives while the device is still opening wins: the device is closed
// again and the session stays disconnected. On failure the error wraps
// ErrDeviceUnavailable or ErrConnectionFailed.
func (s *Session) Connect() error {
	s.mu.Lock()
	if s.state == Connected || s.state == Connecting {
		s.mu.Unlock()
		return nil
	}
	s.state = Connecting
	s.mu.Unlock()

	dev, err := s.open(s.cfg)
	if err != nil {
		s.mu.Lock()
		if s.state == Connecting {
			s.state = Disconnected
			s.lastError = err.Error()
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.state != Connecting {
		// Disconnect ran while the open was in flight.
		s.mu.Unlock()
		if err := dev.Close(); err != nil {
			log.Printf("reader: close device: %v", err)
		}
		return nil
	}
	s.dev = dev
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.state = Connected
	s.lastError = ""
	go s.poll(dev, s.stop, s.done)
	s.mu.Unlock()

	return nil
}

// poll runs until the stop flag is raised or too many consecutive read
// errors occur. Decoder and deduper state live entirely on this goroutine.
func (s *Session) poll(dev Device, stop, done chan struct{}) {
	defer close(done)

	dec := scan.NewDecoder(s.cfg.MinTokenLength)
	dedupe := scan.NewDeduper(time.Duration(s.cfg.SuppressMS) * time.Millisecond)
	buf := make([]byte, 64)
	errs := 0

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := dev.Read(buf, readTimeout)
		if err != nil {
			errs++
			log.Printf("reader: read error (%d/%d): %v", errs, maxReadErrors, err)
			if errs >= maxReadErrors {
				s.fail(err)
				return
			}
			continue
		}
		// Any read that came back clean breaks the error streak, a quiet
		// reader included.
		errs = 0
		if n == 0 {
			continue
		}

		for _, tok := range dec.Feed(buf[:n]) {
			if !dedupe.Accept(tok, s.now()) {
				continue
			}
			s.queue.Push(tok)
		}
	}
}

// fail records the halt and notifies the status callback, if any.
func (s *Session) fail(err error) {
	s.mu.Lock()
	s.state = Error
	s.lastError = err.Error()
	cb := s.onStatus
	st := s.statusLocked()
	s.mu.Unlock()

	log.Printf("reader: monitoring halted: %v", err)
	if cb != nil {
		cb(st)
	}
}

// Disconnect stops the polling goroutine, closes the device and resets the
// session. Idempotent and safe to call from any goroutine, including
// concurrently with the polling loop.
func (s *Session) Disconnect() {
	s.StopMonitoring()

	s.mu.Lock()
	stop, done, dev := s.stop, s.done, s.dev
	s.stop, s.done, s.dev = nil, nil, nil
	s.state = Disconnected
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(joinTimeout):
			log.Printf("reader: polling goroutine did not stop within %v", joinTimeout)
		}
	}
	if dev != nil {
		if err := dev.Close(); err != nil {
			log.Printf("reader: close device: %v", err)
		}
	}
}

// ReadCard waits up to timeout for the next scanned card token.
func (s *Session) ReadCard(timeout time.Duration) (string, bool) {
	return s.queue.Pop(timeout)
}

// TryReadCard returns a queued card token without blocking.
func (s *Session) TryReadCard() (string, bool) {
	return s.queue.TryPop()
}

// StartMonitoring delivers scanned tokens to onCard from a consumer
// goroutine. onStatus, when non-nil, is invoked when the polling loop
// halts on errors. No-op while already monitoring or not connected.
func (s *Session) StartMonitoring(onCard func(string), onStatus func(Status)) {
	s.mu.Lock()
	if s.monStop != nil || s.state != Connected {
		s.mu.Unlock()
		return
	}
	s.onStatus = onStatus
	stop := make(chan struct{})
	done := make(chan struct{})
	s.monStop, s.monDone = stop, done
	s.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			tok, ok := s.queue.Pop(readTimeout)
			if !ok {
				continue
			}
			if onCard != nil {
				onCard(tok)
			}
		}
	}()
}

// StopMonitoring stops callback delivery. Queued tokens remain readable
// through ReadCard. Safe to call when not monitoring.
func (s *Session) StopMonitoring() {
	s.mu.Lock()
	stop, done := s.monStop, s.monDone
	s.monStop, s.monDone = nil, nil
	s.onStatus = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	return Status{
		Connected:  s.state == Connected,
		Monitoring: s.monStop != nil,
		State:      s.state,
		LastError:  s.lastError,
	}
}
