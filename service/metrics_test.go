package service

import (
	"context"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolMetricsProvider_Panics(t *testing.T) {
	t.Run("queue_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.metrics.go: queue is required", func() {
			NewPoolMetricsProvider(nil, log.NewNopLogger())
		})
	})
	t.Run("logger_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.metrics.go: logger is required", func() {
			NewPoolMetricsProvider(NewBoundedQueue[*WorkItem](1), nil)
		})
	})
}

func TestPoolMetricsProvider_Collect(t *testing.T) {
	ctx := context.Background()
	queue := NewBoundedQueue[*WorkItem](4)
	provider := NewPoolMetricsProvider(queue, log.NewNopLogger())

	m, err := provider.Collect(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.CPUPercent, 0.0)
	assert.LessOrEqual(t, m.CPUPercent, 100.0)
	assert.Greater(t, m.MemoryPercent, 0.0)
	assert.LessOrEqual(t, m.MemoryPercent, 100.0)
	assert.Equal(t, 0, m.QueueLength)

	require.NoError(t, queue.Enqueue(ctx, NewWorkItem(ctx, 1)))
	require.NoError(t, queue.Enqueue(ctx, NewWorkItem(ctx, 2)))

	m, err = provider.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, m.QueueLength)
}
