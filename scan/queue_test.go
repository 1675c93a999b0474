package scan

import (
	"fmt"
	"testing"
	"time"
)

func TestQueueDropOldestOnOverflow(t *testing.T) {
	q := NewQueue(10)

	for i := 1; i <= 12; i++ {
		q.Push(fmt.Sprintf("token-%02d", i))
	}
	if q.Len() != 10 {
		t.Fatalf("queue must never exceed capacity, have %d", q.Len())
	}

	// Tokens 1 and 2 were evicted; the rest pop in FIFO order.
	for i := 3; i <= 12; i++ {
		tok, ok := q.TryPop()
		if !ok {
			t.Fatalf("expected token %d, queue empty", i)
		}
		if want := fmt.Sprintf("token-%02d", i); tok != want {
			t.Fatalf("expected %s, got %s", want, tok)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Error("queue should be drained")
	}
}

func TestQueuePopTimeout(t *testing.T) {
	q := NewQueue(2)

	start := time.Now()
	if _, ok := q.Pop(50 * time.Millisecond); ok {
		t.Fatal("pop on empty queue must time out")
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("pop returned too early: %v", elapsed)
	}
}

func TestQueuePopReceivesPush(t *testing.T) {
	q := NewQueue(2)

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Push("1234567890")
	}()

	tok, ok := q.Pop(time.Second)
	if !ok || tok != "1234567890" {
		t.Fatalf("expected pushed token, got %q ok=%v", tok, ok)
	}
}

func TestQueueTryPopNonBlocking(t *testing.T) {
	q := NewQueue(1)

	if _, ok := q.TryPop(); ok {
		t.Fatal("TryPop on empty queue must return false")
	}
	q.Push("ABCDEF")
	tok, ok := q.TryPop()
	if !ok || tok != "ABCDEF" {
		t.Fatalf("expected ABCDEF, got %q ok=%v", tok, ok)
	}
}
