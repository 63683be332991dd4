package myredis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// compareAndDeleteScript deletes the key only when it still holds the
// expected value. Runs atomically on the server.
var compareAndDeleteScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// compareAndExtendScript refreshes the key's TTL only when it still holds
// the expected value. ARGV[2] is the new TTL in milliseconds.
var compareAndExtendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type atomicStore struct {
	client redis.UniversalClient
}

// NewAtomicStore creates redis implementation of the atomic key store
// backing distributed locks.
func NewAtomicStore(client redis.UniversalClient) *atomicStore {
	return &atomicStore{client: client}
}

// SetIfAbsent writes the value only when the key is free.
// Returns: 1) true when this caller created the key. 2) error on redis failure.
func (s *atomicStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx (key='%s'): %w", key, err)
	}
	return ok, nil
}

// CompareAndDelete removes the key only when it still holds expected.
// Returns: 1) true when the key was deleted. 2) error on redis failure.
func (s *atomicStore) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	res, err := compareAndDeleteScript.Run(ctx, s.client, []string{key}, expected).Int()
	if err != nil {
		return false, fmt.Errorf("redis compare-and-delete (key='%s'): %w", key, err)
	}
	return res == 1, nil
}

// CompareAndExtend refreshes the key's TTL only when it still holds expected.
// Returns: 1) true when the TTL was refreshed. 2) error on redis failure.
func (s *atomicStore) CompareAndExtend(ctx context.Context, key, expected string, ttl time.Duration) (bool, error) {
	res, err := compareAndExtendScript.Run(ctx, s.client, []string{key}, expected, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis compare-and-extend (key='%s'): %w", key, err)
	}
	return res == 1, nil
}
