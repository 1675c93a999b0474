package scan

import (
	"sync"
	"time"
)

// DefaultQueueSize bounds the number of unread scans held for the consumer.
const DefaultQueueSize = 10

// Queue is the bounded FIFO between the reader goroutine and the consumer.
// Push never blocks and never fails: when the queue is full the oldest
// token is evicted first, because the freshest scan matters most at a
// kiosk. Pop and TryPop may be called from any goroutine.
type Queue struct {
	mu sync.Mutex
	ch chan string
}

// NewQueue creates a queue of the given capacity. size <= 0 selects
// DefaultQueueSize.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan string, size)}
}

// Push enqueues token, evicting the oldest unread entry when full.
func (q *Queue) Push(token string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		select {
		case q.ch <- token:
			return
		default:
		}
		// Full: drop the oldest and retry. A concurrent Pop may have
		// raced us to it, which is fine either way.
		select {
		case <-q.ch:
		default:
		}
	}
}

// Pop waits up to timeout for the next token. ok is false on expiry.
func (q *Queue) Pop(timeout time.Duration) (token string, ok bool) {
	if timeout <= 0 {
		return q.TryPop()
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case token = <-q.ch:
		return token, true
	case <-t.C:
		return "", false
	}
}

// TryPop returns the next token without blocking.
func (q *Queue) TryPop() (token string, ok bool) {
	select {
	case token = <-q.ch:
		return token, true
	default:
		return "", false
	}
}

// Len returns the number of unread tokens.
func (q *Queue) Len() int {
	return len(q.ch)
}
