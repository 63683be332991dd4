package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"agentpool/domain"
	"agentpool/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scalerConfig() AutoScalerConfig {
	return AutoScalerConfig{
		MinInstances:        2,
		MaxInstances:        10,
		TargetCPUPercent:    70,
		TargetMemoryPercent: 80,
		ScaleUpCooldown:     time.Hour,
		ScaleDownCooldown:   time.Hour,
	}
}

func newTestScaler(t *testing.T, initial int, samples ...domain.Metrics) (*AutoScaler, *mock.ScaleApplierMock) {
	t.Helper()
	var i int
	metrics := &mock.MetricsProviderMock{
		CollectFunc: func(ctx context.Context) (domain.Metrics, error) {
			s := samples[i]
			if i < len(samples)-1 {
				i++
			}
			return s, nil
		},
	}
	applier := &mock.ScaleApplierMock{
		ApplyScaleFunc: func(ctx context.Context, target int) error { return nil },
	}
	return NewAutoScaler(scalerConfig(), initial, metrics, applier, log.NewNopLogger()), applier
}

func TestNewAutoScaler_Panics(t *testing.T) {
	metrics := &mock.MetricsProviderMock{}
	applier := &mock.ScaleApplierMock{}
	logger := log.NewNopLogger()

	t.Run("min_below_one", func(t *testing.T) {
		cfg := scalerConfig()
		cfg.MinInstances = 0
		assert.PanicsWithValue(t, "service.scaler.go: MinInstances must be >= 1", func() {
			NewAutoScaler(cfg, 1, metrics, applier, logger)
		})
	})
	t.Run("max_below_min", func(t *testing.T) {
		cfg := scalerConfig()
		cfg.MaxInstances = 1
		assert.PanicsWithValue(t, "service.scaler.go: MaxInstances must be >= MinInstances", func() {
			NewAutoScaler(cfg, 1, metrics, applier, logger)
		})
	})
	t.Run("metrics_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.scaler.go: metrics provider is required", func() {
			NewAutoScaler(scalerConfig(), 2, nil, applier, logger)
		})
	})
	t.Run("applier_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.scaler.go: applier is required", func() {
			NewAutoScaler(scalerConfig(), 2, metrics, nil, logger)
		})
	})
}

func TestAutoScaler_InitialClamped(t *testing.T) {
	s, _ := newTestScaler(t, 50, domain.Metrics{})
	assert.Equal(t, 10, s.InstanceCount())

	s, _ = newTestScaler(t, 0, domain.Metrics{})
	assert.Equal(t, 2, s.InstanceCount())
}

func TestAutoScaler_ScaleUpTriggers(t *testing.T) {
	ctx := context.Background()

	t.Run("cpu_over_target", func(t *testing.T) {
		s, applier := newTestScaler(t, 2, domain.Metrics{CPUPercent: 105, MemoryPercent: 40, QueueLength: 0})
		d, err := s.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ScaleUp, d.Direction)
		// ceil(2 * 105/70) = 3
		assert.Equal(t, 1, d.Delta)
		assert.Equal(t, 3, s.InstanceCount())
		require.Len(t, applier.ApplyScaleCalls(), 1)
		assert.Equal(t, 3, applier.ApplyScaleCalls()[0].Target)
	})

	t.Run("memory_over_target", func(t *testing.T) {
		s, _ := newTestScaler(t, 2, domain.Metrics{CPUPercent: 10, MemoryPercent: 160, QueueLength: 0})
		d, err := s.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ScaleUp, d.Direction)
		// ceil(2 * 160/80) = 4
		assert.Equal(t, 2, d.Delta)
		assert.Equal(t, 4, s.InstanceCount())
	})

	t.Run("queue_over_ten_times_instances", func(t *testing.T) {
		s, _ := newTestScaler(t, 2, domain.Metrics{CPUPercent: 10, MemoryPercent: 10, QueueLength: 21})
		d, err := s.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ScaleUp, d.Direction)
		// Utilization ratios are below 1, so the step is the minimum of one instance.
		assert.Equal(t, 1, d.Delta)
		assert.Equal(t, 3, s.InstanceCount())
	})

	t.Run("clamped_to_max", func(t *testing.T) {
		s, _ := newTestScaler(t, 9, domain.Metrics{CPUPercent: 700, MemoryPercent: 10, QueueLength: 0})
		d, err := s.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ScaleUp, d.Direction)
		assert.Equal(t, 1, d.Delta)
		assert.Equal(t, 10, s.InstanceCount())
	})

	t.Run("at_max_no_decision_no_apply", func(t *testing.T) {
		s, applier := newTestScaler(t, 10, domain.Metrics{CPUPercent: 700, MemoryPercent: 10, QueueLength: 0})
		d, err := s.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ScaleNone, d.Direction)
		assert.Equal(t, 10, s.InstanceCount())
		assert.Empty(t, applier.ApplyScaleCalls())
	})
}

func TestAutoScaler_ScaleUpCooldown(t *testing.T) {
	ctx := context.Background()
	hot := domain.Metrics{CPUPercent: 105, MemoryPercent: 40, QueueLength: 0}
	s, applier := newTestScaler(t, 2, hot)

	d, err := s.Evaluate(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ScaleUp, d.Direction)

	// Second hot sample inside the cooldown window is ignored.
	d, err = s.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ScaleNone, d.Direction)
	assert.Equal(t, "scale-up cooldown active", d.Reason)
	assert.Len(t, applier.ApplyScaleCalls(), 1)
}

func TestAutoScaler_ScaleDown(t *testing.T) {
	ctx := context.Background()
	idle := domain.Metrics{CPUPercent: 10, MemoryPercent: 10, QueueLength: 0}

	t.Run("one_at_a_time", func(t *testing.T) {
		s, applier := newTestScaler(t, 5, idle)
		d, err := s.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ScaleDown, d.Direction)
		assert.Equal(t, 1, d.Delta)
		assert.Equal(t, 4, s.InstanceCount())
		require.Len(t, applier.ApplyScaleCalls(), 1)
		assert.Equal(t, 4, applier.ApplyScaleCalls()[0].Target)
	})

	t.Run("never_below_min", func(t *testing.T) {
		s, applier := newTestScaler(t, 2, idle)
		d, err := s.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ScaleNone, d.Direction)
		assert.Equal(t, 2, s.InstanceCount())
		assert.Empty(t, applier.ApplyScaleCalls())
	})

	t.Run("cooldown_suppresses_second_step", func(t *testing.T) {
		s, _ := newTestScaler(t, 5, idle)
		d, err := s.Evaluate(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.ScaleDown, d.Direction)

		d, err = s.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ScaleNone, d.Direction)
		assert.Equal(t, "scale-down cooldown active", d.Reason)
	})

	t.Run("busy_queue_blocks_scale_down", func(t *testing.T) {
		// cpu and mem are low but queue >= 2x instances.
		s, _ := newTestScaler(t, 5, domain.Metrics{CPUPercent: 10, MemoryPercent: 10, QueueLength: 10})
		d, err := s.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ScaleNone, d.Direction)
		assert.Equal(t, 5, s.InstanceCount())
	})
}

func TestAutoScaler_ApplyFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	metrics := &mock.MetricsProviderMock{
		CollectFunc: func(ctx context.Context) (domain.Metrics, error) {
			return domain.Metrics{CPUPercent: 105, MemoryPercent: 40}, nil
		},
	}
	applyErr := errors.New("orchestrator rejected")
	var applies int
	applier := &mock.ScaleApplierMock{
		ApplyScaleFunc: func(ctx context.Context, target int) error {
			applies++
			if applies == 1 {
				return applyErr
			}
			return nil
		},
	}
	s := NewAutoScaler(scalerConfig(), 2, metrics, applier, log.NewNopLogger())

	_, err := s.Evaluate(ctx)
	require.ErrorIs(t, err, applyErr)
	assert.Equal(t, 2, s.InstanceCount())

	// No cooldown was recorded, so the next evaluation retries immediately.
	d, err := s.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ScaleUp, d.Direction)
	assert.Equal(t, 3, s.InstanceCount())
}

func TestAutoScaler_MetricsFailure(t *testing.T) {
	ctx := context.Background()
	collectErr := errors.New("telemetry down")
	metrics := &mock.MetricsProviderMock{
		CollectFunc: func(ctx context.Context) (domain.Metrics, error) {
			return domain.Metrics{}, collectErr
		},
	}
	applier := &mock.ScaleApplierMock{}
	s := NewAutoScaler(scalerConfig(), 3, metrics, applier, log.NewNopLogger())

	d, err := s.Evaluate(ctx)
	require.ErrorIs(t, err, collectErr)
	assert.Equal(t, domain.ScaleNone, d.Direction)
	assert.Equal(t, 3, s.InstanceCount())
	assert.Empty(t, applier.ApplyScaleCalls())
}
