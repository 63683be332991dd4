package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"agentpool/domain"
	"agentpool/helpers"
	"agentpool/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
)

// defaultLockRetryInterval is the pause between acquisition attempts while
// a resource is held by another owner.
const defaultLockRetryInterval = 50 * time.Millisecond

// lockKeyPrefix namespaces lock keys in the shared store.
const lockKeyPrefix = "agentpool:lock:"

// LockManager acquires lease-based distributed locks over an atomic store.
// All true mutual exclusion lives in the store's conditional operations;
// the in-process objects only track local lease metadata and never assume
// ownership before the atomic acquire has returned success.
type LockManager struct {
	store         interfaces.AtomicStore
	logger        log.Logger
	retryInterval time.Duration
}

// NewLockManager creates a manager over the given store. retryInterval <= 0
// defaults to 50ms. Panics on nil store or logger.
//
// Called from cmd/main; one manager serves any number of resources.
func NewLockManager(store interfaces.AtomicStore, retryInterval time.Duration, logger log.Logger) *LockManager {
	if retryInterval <= 0 {
		retryInterval = defaultLockRetryInterval
	}
	return &LockManager{
		store:         helpers.NilPanic(store, "service.lock.go: store is required"),
		logger:        log.With(helpers.NilPanic(logger, "service.lock.go: logger is required"), "component", "distributed_lock"),
		retryInterval: retryInterval,
	}
}

// Acquire attempts "set resource to a fresh random token if absent, with
// expiry ttl", retrying at the manager's interval until wait elapses.
// Returns:
// 1) (lock, nil) once the atomic set succeeds;
// 2) (nil, ErrLockAcquireTimeout) when the resource stayed held for the
// whole wait budget;
// 3) (nil, ctx.Err()) on cancellation, (nil, err) on a store error.
func (m *LockManager) Acquire(ctx context.Context, resource string, ttl, wait time.Duration) (*Lock, error) {
	resource = helpers.StrPanic(resource, "service.lock.go: resource is required")
	if ttl <= 0 {
		panic("service.lock.go: ttl must be positive")
	}

	key := lockKeyPrefix + resource
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := m.store.SetIfAbsent(ctx, key, token, ttl)
		if err != nil {
			return nil, fmt.Errorf("acquire %q: %w", resource, err)
		}
		if ok {
			level.Debug(m.logger).Log("msg", "lock acquired", "resource", resource)
			return &Lock{
				lease:  domain.LockLease{Resource: resource, Token: token, TTL: ttl},
				key:    key,
				store:  m.store,
				logger: log.With(m.logger, "resource", resource),
			}, nil
		}

		if time.Now().Add(m.retryInterval).After(deadline) {
			return nil, fmt.Errorf("resource %q held beyond wait budget %s: %w", resource, wait, ErrLockAcquireTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.retryInterval):
		}
	}
}

// Lock is one held lease. Release and Extend only act when the stored token
// still matches this holder; a lease lost to expiry is treated as a silent
// no-op, never a deletion of the next holder's lease.
type Lock struct {
	key    string
	store  interfaces.AtomicStore
	logger log.Logger

	mu        sync.Mutex
	lease     domain.LockLease
	released  bool
	renewStop context.CancelFunc
	renewDone chan struct{}
}

// Lease returns a copy of the local lease metadata.
func (l *Lock) Lease() domain.LockLease {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lease
}

// Release deletes the lease if this holder still owns it and stops any
// auto-renew task. When the token no longer matches (lease expired,
// possibly re-acquired by another holder) the release is a no-op.
// Idempotent. Returns only store errors.
func (l *Lock) Release(ctx context.Context) error {
	l.stopRenew()

	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return nil
	}
	l.released = true
	token := l.lease.Token
	l.mu.Unlock()

	ok, err := l.store.CompareAndDelete(ctx, l.key, token)
	if err != nil {
		return fmt.Errorf("release %q: %w", l.key, err)
	}
	if !ok {
		// Not owned anymore; deliberately not an error for the caller.
		level.Debug(l.logger).Log("msg", "release skipped, lease no longer owned", "cause", errLockNotOwned)
		return nil
	}
	level.Debug(l.logger).Log("msg", "lock released")
	return nil
}

// Extend atomically resets the lease expiry to newTTL if this holder still
// owns it. Losing the lease is a silent no-op, matching Release. Returns
// only store errors.
func (l *Lock) Extend(ctx context.Context, newTTL time.Duration) error {
	err := l.extend(ctx, newTTL)
	if errors.Is(err, errLockNotOwned) {
		level.Warn(l.logger).Log("msg", "extend skipped, lease no longer owned")
		return nil
	}
	return err
}

// extend performs the compare-and-extend, reporting errLockNotOwned when
// the stored token no longer matches.
func (l *Lock) extend(ctx context.Context, newTTL time.Duration) error {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return errLockNotOwned
	}
	token := l.lease.Token
	l.mu.Unlock()

	ok, err := l.store.CompareAndExtend(ctx, l.key, token, newTTL)
	if err != nil {
		return fmt.Errorf("extend %q: %w", l.key, err)
	}
	if !ok {
		return errLockNotOwned
	}

	l.mu.Lock()
	l.lease.TTL = newTTL
	l.mu.Unlock()
	return nil
}

// StartAutoRenew launches a background task that extends the lease every
// interval; interval <= 0 defaults to half the lease TTL. The task stops on
// Release/Close, or on its own when the lease is lost. Second calls while a
// task is running are no-ops.
func (l *Lock) StartAutoRenew(interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released || l.renewStop != nil {
		return
	}
	if interval <= 0 {
		interval = l.lease.TTL / 2
	}
	ttl := l.lease.TTL

	ctx, cancel := context.WithCancel(context.Background())
	l.renewStop = cancel
	l.renewDone = make(chan struct{})
	go l.renewLoop(ctx, interval, ttl)
}

// renewLoop extends the lease on every tick until stopped or until the
// lease is observed lost.
func (l *Lock) renewLoop(ctx context.Context, interval, ttl time.Duration) {
	defer close(l.renewDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := l.extend(ctx, ttl)
			switch {
			case err == nil:
				level.Debug(l.logger).Log("msg", "lease renewed")
			case errors.Is(err, errLockNotOwned):
				level.Warn(l.logger).Log("msg", "lease lost, stopping auto-renew")
				return
			case ctx.Err() != nil:
				return
			default:
				// Transient store error; keep trying until the lease expires for real.
				level.Error(l.logger).Log("msg", "lease renewal failed", "err", err)
			}
		}
	}
}

// stopRenew cancels the renew task and waits for it to exit.
func (l *Lock) stopRenew() {
	l.mu.Lock()
	stop := l.renewStop
	done := l.renewDone
	l.renewStop = nil
	l.renewDone = nil
	l.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
}

// Close is the disposal path: best-effort release that stops any renewal
// task and logs, but never returns, an error. Cleanup must not throw.
func (l *Lock) Close(ctx context.Context) {
	if err := l.Release(ctx); err != nil {
		level.Error(l.logger).Log("msg", "best-effort release failed", "err", err)
	}
}
