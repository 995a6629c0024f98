// Package queue provides a FIFO whose producers never block on the consumer.
package queue

import (
	"sync"

	"github.com/gammazero/deque"
)

// Queue is a FIFO safe for any number of producers and one consumer.
type Queue[T any] struct {
	mu     sync.Mutex
	items  deque.Deque[T]
	limit  int
	closed bool
	ready  chan struct{}
}

// New returns a queue holding at most limit items. A limit of zero or less
// means unbounded.
func New[T any](limit int) *Queue[T] {
	return &Queue[T]{limit: limit, ready: make(chan struct{}, 1)}
}

// Push appends v. It reports false, dropping v, when the queue is closed or
// full.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed || (q.limit > 0 && q.items.Len() >= q.limit) {
		q.mu.Unlock()
		return false
	}
	q.items.PushBack(v)
	q.mu.Unlock()
	q.signal()
	return true
}

// Close stops further pushes. Items already queued can still be popped.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

// Len reports the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Pop returns the oldest item, waiting for one. It reports false once the
// queue is closed and drained, or done is closed.
func (q *Queue[T]) Pop(done <-chan struct{}) (T, bool) {
	for {
		q.mu.Lock()
		if q.items.Len() > 0 {
			v := q.items.PopFront()
			q.mu.Unlock()
			return v, true
		}
		closed := q.closed
		q.mu.Unlock()

		var zero T
		if closed {
			return zero, false
		}
		select {
		case <-q.ready:
		case <-done:
			return zero, false
		}
	}
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
