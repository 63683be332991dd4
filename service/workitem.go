package service

import (
	"context"
	"sync"
)

// WorkItem is one unit of agent work: an opaque payload, the producer's
// cancellation signal and a single-assignment result slot. Exactly one of
// success value, cancellation or error is set, exactly once, by the worker
// that consumed the item.
type WorkItem struct {
	payload any
	ctx     context.Context

	once   sync.Once
	done   chan struct{}
	result any
	err    error
}

// NewWorkItem creates a work item carrying payload under the producer's
// ctx. A nil ctx defaults to context.Background().
func NewWorkItem(ctx context.Context, payload any) *WorkItem {
	if ctx == nil {
		ctx = context.Background()
	}
	return &WorkItem{
		payload: payload,
		ctx:     ctx,
		done:    make(chan struct{}),
	}
}

// Payload returns the opaque input.
func (w *WorkItem) Payload() any {
	return w.payload
}

// Context returns the producer's cancellation signal for this item.
func (w *WorkItem) Context() context.Context {
	return w.ctx
}

// complete fulfills the result slot. Later calls are no-ops, which keeps
// the exactly-once invariant even if a worker loop misbehaves.
func (w *WorkItem) complete(result any, err error) {
	w.once.Do(func() {
		w.result = result
		w.err = err
		close(w.done)
	})
}

// Wait blocks until the item's result is set or ctx is cancelled.
// Returns:
// 1) (result, nil) on success;
// 2) (nil, executor error or cancellation error) when the item failed or
// was cancelled;
// 3) (nil, ctx.Err()) when the waiter's own ctx expires first.
func (w *WorkItem) Wait(ctx context.Context) (any, error) {
	select {
	case <-w.done:
		return w.result, w.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
