package retry

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueCleared is returned for operations discarded by Clear.
var ErrQueueCleared = errors.New("queue cleared")

// ErrQueueClosed is returned for operations submitted after Close.
var ErrQueueClosed = errors.New("queue closed")

type queueItem struct {
	ctx  context.Context
	op   func(ctx context.Context) error
	done chan error
}

// Queue serializes operations so that mutations run strictly in
// submission order, one at a time. Each operation typically wraps a
// retried API call; serialization prevents interleaved retries from
// racing each other's writes.
type Queue struct {
	mu     sync.Mutex
	items  chan queueItem
	closed bool
}

// NewQueue starts a queue with the given buffer capacity.
func NewQueue(capacity int) *Queue {
	q := &Queue{items: make(chan queueItem, capacity)}
	go q.run()
	return q
}

func (q *Queue) run() {
	for item := range q.items {
		item.done <- item.op(item.ctx)
	}
}

// Add submits op and blocks until it has run, returning its error.
// The operation receives the caller's context.
func (q *Queue) Add(ctx context.Context, op func(ctx context.Context) error) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	item := queueItem{ctx: ctx, op: op, done: make(chan error, 1)}
	q.items <- item
	q.mu.Unlock()

	return <-item.done
}

// Clear discards all pending operations. Their callers receive
// ErrQueueCleared; the operation currently running is unaffected.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		select {
		case item := <-q.items:
			item.done <- ErrQueueCleared
		default:
			return
		}
	}
}

// Close stops the queue after draining pending operations. Further Add
// calls fail with ErrQueueClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.items)
}
