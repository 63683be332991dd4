package service

import (
	"context"
	"sync"
)

// BoundedQueue is a capacity-limited FIFO of work items and the pool's sole
// backpressure mechanism: when consumers fall behind, producers block in
// Enqueue instead of losing items. Complete stops further enqueues;
// outstanding and subsequent dequeues drain the remaining items, then
// report closure.
//
// Built on a buffered channel plus a done signal. The item channel is never
// closed, so a racing Enqueue can never panic; it either ships the item or
// observes done.
type BoundedQueue[T any] struct {
	items    chan T
	done     chan struct{}
	closeOne sync.Once
}

// NewBoundedQueue creates a queue with the given capacity. Panics on a
// non-positive capacity.
func NewBoundedQueue[T any](capacity int) *BoundedQueue[T] {
	if capacity < 1 {
		panic("service.queue.go: capacity must be >= 1")
	}
	return &BoundedQueue[T]{
		items: make(chan T, capacity),
		done:  make(chan struct{}),
	}
}

// Enqueue adds item to the back of the queue, blocking while the queue is
// at capacity.
// Returns:
// 1) nil once the item is queued;
// 2) ErrQueueClosed after Complete;
// 3) ctx.Err() when the caller's context is cancelled while blocked.
func (q *BoundedQueue[T]) Enqueue(ctx context.Context, item T) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.items <- item:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue removes the item at the front of the queue, blocking while the
// queue is empty.
// Returns:
// 1) (item, true, nil) when an item is available;
// 2) (zero, false, nil) when the queue is closed and fully drained;
// 3) (zero, false, ctx.Err()) when the caller's context is cancelled while blocked.
func (q *BoundedQueue[T]) Dequeue(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case item := <-q.items:
		return item, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case <-q.done:
		// Closed: drain whatever is still buffered before reporting empty.
		select {
		case item := <-q.items:
			return item, true, nil
		case <-ctx.Done():
			return zero, false, ctx.Err()
		default:
			return zero, false, nil
		}
	}
}

// Complete signals that no further items will be enqueued. Idempotent.
func (q *BoundedQueue[T]) Complete() {
	q.closeOne.Do(func() { close(q.done) })
}

// Count reports the current queue depth.
func (q *BoundedQueue[T]) Count() int {
	return len(q.items)
}

// Cap reports the configured capacity.
func (q *BoundedQueue[T]) Cap() int {
	return cap(q.items)
}
