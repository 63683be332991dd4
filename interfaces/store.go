package interfaces

import (
	"context"
	"time"
)

// AtomicStore is the narrow key/value contract the distributed lock
// delegates all true mutual exclusion to. Backed by any store with atomic
// conditional operations (e.g. Redis SET NX / Lua compare-delete).
//
//go:generate moq -stub -out mock/store.go -pkg mock . AtomicStore
type AtomicStore interface {
	// SetIfAbsent stores value under key with the given TTL only when the
	// key does not exist.
	// Returns:
	// 1) (true, nil) when the key was set;
	// 2) (false, nil) when the key already exists;
	// 3) (false, err) on a store error.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// CompareAndDelete deletes key only when its stored value equals expected.
	// Returns (true, nil) when the key was deleted, (false, nil) when the
	// value did not match or the key is gone, (false, err) on a store error.
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)

	// CompareAndExtend resets the TTL of key only when its stored value
	// equals expected. Returns (true, nil) when extended, (false, nil) when
	// the value did not match or the key is gone, (false, err) on a store error.
	CompareAndExtend(ctx context.Context, key, expected string, ttl time.Duration) (bool, error)
}
