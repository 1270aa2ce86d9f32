// Package mailbox provides a bounded FIFO queue with a non-blocking producer side
// and a consumer side that waits with a timeout.
//
// A Mailbox is never closed: producers may keep offering after the consumer left,
// and the values are simply dropped once the buffer fills.
package mailbox

import (
	"context"
	"time"
)

type Mailbox[T any] struct {
	ch chan T
}

func New[T any](capacity int) *Mailbox[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Mailbox[T]{ch: make(chan T, capacity)}
}

// Offer enqueues v without blocking. It returns false when the mailbox is full and v was dropped.
func (m *Mailbox[T]) Offer(v T) bool {
	select {
	case m.ch <- v:
		return true
	default:
		return false
	}
}

// Wait blocks until a value arrives, the timeout elapses or ctx is done.
// On timeout it returns ok=false and a nil error; no value is consumed.
func (m *Mailbox[T]) Wait(ctx context.Context, timeout time.Duration) (v T, ok bool, err error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v = <-m.ch:
		return v, true, nil
	case <-timer.C:
		return v, false, nil
	case <-ctx.Done():
		return v, false, ctx.Err()
	}
}

func (m *Mailbox[T]) Len() int { return len(m.ch) }

func (m *Mailbox[T]) Cap() int { return cap(m.ch) }
