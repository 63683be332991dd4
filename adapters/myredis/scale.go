package myredis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

const defaultDesiredCapacityKey = "agentpool:desired_instances"

type desiredCapacityApplier struct {
	client redis.UniversalClient
	key    string
}

// NewDesiredCapacityApplier creates a ScaleApplier that publishes the
// target instance count to a redis key. Provisioners watch the key and
// converge the fleet on it; the control plane never starts processes
// itself.
func NewDesiredCapacityApplier(client redis.UniversalClient, key string) *desiredCapacityApplier {
	if key == "" {
		key = defaultDesiredCapacityKey
	}
	return &desiredCapacityApplier{client: client, key: key}
}

// ApplyScale writes the target count. The key has no TTL: the last
// published target stays authoritative until the next scaling decision.
func (a *desiredCapacityApplier) ApplyScale(ctx context.Context, target int) error {
	err := a.client.Set(ctx, a.key, target, 0).Err()
	if err != nil {
		return fmt.Errorf("redis write desired capacity (key='%s'): %w", a.key, err)
	}
	return nil
}

// Desired reads back the last published target. Returns 0 when no target
// has been published yet.
func (a *desiredCapacityApplier) Desired(ctx context.Context) (int, error) {
	raw, err := a.client.Get(ctx, a.key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis read desired capacity (key='%s'): %w", a.key, err)
	}
	target, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("desired capacity (key='%s') is not a number: %w", a.key, err)
	}
	return target, nil
}
