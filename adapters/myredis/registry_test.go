package myredis

import (
	"context"
	"testing"
	"time"

	"agentpool/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistryPrefix = "agentpool:test:instance"

func TestInstanceRegistry(t *testing.T) {
	ctx := context.Background()
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	clearPrefix := func() {
		keys, _ := client.Keys(ctx, testRegistryPrefix+":*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	}
	clearPrefix()
	defer clearPrefix()

	registry := NewInstanceRegistry(client, testRegistryPrefix)
	inst := domain.Instance{
		InstanceID:  "inst-1",
		ServiceName: "agent-worker",
		Endpoint:    "127.0.0.1:9000",
		Healthy:     true,
		Weight:      3,
		LastCheck:   time.Now(),
	}

	t.Run("empty feed returns no instances", func(t *testing.T) {
		instances, err := registry.GetInstances(ctx)
		require.NoError(t, err)
		assert.Empty(t, instances)
	})

	t.Run("announce then list", func(t *testing.T) {
		err := registry.Announce(ctx, inst, time.Minute)
		require.NoError(t, err)

		instances, err := registry.GetInstances(ctx)
		require.NoError(t, err)
		require.Len(t, instances, 1)
		got := instances[0]
		assert.Equal(t, inst.InstanceID, got.InstanceID)
		assert.Equal(t, inst.ServiceName, got.ServiceName)
		assert.Equal(t, inst.Endpoint, got.Endpoint)
		assert.Equal(t, inst.Weight, got.Weight)
		assert.True(t, got.Healthy)
	})

	t.Run("announce refreshes the record", func(t *testing.T) {
		updated := inst
		updated.Weight = 5
		err := registry.Announce(ctx, updated, time.Minute)
		require.NoError(t, err)

		instances, err := registry.GetInstances(ctx)
		require.NoError(t, err)
		require.Len(t, instances, 1)
		assert.Equal(t, 5, instances[0].Weight)
	})

	t.Run("record expires with its ttl", func(t *testing.T) {
		short := domain.Instance{InstanceID: "inst-short", ServiceName: "agent-worker", Endpoint: "127.0.0.1:9001", Healthy: true}
		err := registry.Announce(ctx, short, 40*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(80 * time.Millisecond)

		instances, err := registry.GetInstances(ctx)
		require.NoError(t, err)
		for _, got := range instances {
			assert.NotEqual(t, "inst-short", got.InstanceID)
		}
	})

	t.Run("invalid JSON record is skipped", func(t *testing.T) {
		err := client.Set(ctx, testRegistryPrefix+":badjson", "invalid json", time.Minute).Err()
		require.NoError(t, err)

		instances, err := registry.GetInstances(ctx)
		require.NoError(t, err)
		for _, got := range instances {
			assert.NotEmpty(t, got.InstanceID)
		}
	})

	t.Run("withdraw removes the record", func(t *testing.T) {
		err := registry.Withdraw(ctx, inst.InstanceID)
		require.NoError(t, err)

		instances, err := registry.GetInstances(ctx)
		require.NoError(t, err)
		for _, got := range instances {
			assert.NotEqual(t, inst.InstanceID, got.InstanceID)
		}
	})
}
