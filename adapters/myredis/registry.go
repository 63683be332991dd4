package myredis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"agentpool/domain"

	"github.com/go-redis/redis/v8"
)

const defaultRegistryPrefix = "agentpool:instance"

type instanceRegistry struct {
	client redis.UniversalClient
	prefix string
}

// NewInstanceRegistry creates redis implementation of the instance registry
// feed. Records are TTL'd JSON documents, one key per instance, so crashed
// instances disappear from the feed when their announcements stop.
func NewInstanceRegistry(client redis.UniversalClient, prefix string) *instanceRegistry {
	if prefix == "" {
		prefix = defaultRegistryPrefix
	}
	return &instanceRegistry{client: client, prefix: prefix}
}

// GetInstances lists all instance records currently announced in redis.
// Records that fail to decode are skipped. An empty feed is not an error.
func (r *instanceRegistry) GetInstances(ctx context.Context) ([]domain.Instance, error) {
	fullKeys, err := r.client.Keys(ctx, r.prefix+":*").Result()
	if err != nil {
		return nil, fmt.Errorf("redis list instance keys: %w", err)
	}

	prefixWithColon := r.prefix + ":"
	instances := make([]domain.Instance, 0, len(fullKeys))
	for _, key := range fullKeys {
		if !strings.HasPrefix(key, prefixWithColon) {
			continue
		}

		bytes, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}

		var inst domain.Instance
		if err := json.Unmarshal(bytes, &inst); err != nil {
			continue
		}

		instances = append(instances, inst)
	}

	return instances, nil
}

// Announce writes (or refreshes) the instance record with the given TTL.
// Called periodically by instances to keep their record alive.
func (r *instanceRegistry) Announce(ctx context.Context, inst domain.Instance, ttl time.Duration) error {
	bytes, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("can't marshal instance '%s': %w", inst.InstanceID, err)
	}

	err = r.client.Set(ctx, r.generateKey(inst.InstanceID), bytes, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis write instance (key='%s'): %w", inst.InstanceID, err)
	}

	return nil
}

// Withdraw removes the instance record immediately instead of waiting for
// its TTL to lapse.
func (r *instanceRegistry) Withdraw(ctx context.Context, instanceID string) error {
	err := r.client.Del(ctx, r.generateKey(instanceID)).Err()
	if err != nil {
		return fmt.Errorf("redis delete instance (key='%s'): %w", instanceID, err)
	}
	return nil
}

func (r *instanceRegistry) generateKey(instanceID string) string {
	return r.prefix + ":" + instanceID
}
