package service

import "errors"

// ErrBreakerOpen is returned by CircuitBreaker.Execute when the breaker is
// open and the reset timeout has not elapsed. The wrapped operation is never
// invoked; callers may retry after backoff.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// ErrNoHealthyInstance is returned by GetInstance and ExecuteWithFailover
// when no healthy instance is available or the retry budget is exhausted.
var ErrNoHealthyInstance = errors.New("no healthy instance available")

// ErrQueueClosed is returned by Enqueue after Complete has been called.
var ErrQueueClosed = errors.New("work queue is closed")

// ErrLockAcquireTimeout is returned by AcquireLock when the resource stayed
// held by another owner for the whole wait budget.
var ErrLockAcquireTimeout = errors.New("lock acquire timed out")

// errLockNotOwned means the stored token no longer matches this holder
// (lease expired and possibly re-acquired). Release and Extend treat it as
// a silent no-op; it never crosses the package boundary.
var errLockNotOwned = errors.New("lock is not owned by this holder")
