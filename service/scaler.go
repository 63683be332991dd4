package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"agentpool/domain"
	"agentpool/helpers"
	"agentpool/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// AutoScalerConfig bounds and tunes scaling decisions.
type AutoScalerConfig struct {
	MinInstances int
	MaxInstances int
	// TargetCPUPercent and TargetMemoryPercent are the utilization ceilings
	// above which a scale-up triggers; half of each is the scale-down floor.
	TargetCPUPercent    float64
	TargetMemoryPercent float64
	// ScaleUpCooldown and ScaleDownCooldown are independent windows during
	// which a repeated trigger of the same direction is ignored.
	ScaleUpCooldown   time.Duration
	ScaleDownCooldown time.Duration
}

// AutoScaler periodically evaluates load metrics against the configured
// targets and applies scale-up/scale-down decisions through the external
// applier. Instance count and cooldown timestamps are guarded by a single
// mutex and mutated only here; state is updated only after the applier
// reports success, so a failed apply never leaves a partial update.
type AutoScaler struct {
	cfg     AutoScalerConfig
	metrics interfaces.MetricsProvider
	applier interfaces.ScaleApplier
	logger  log.Logger

	mu            sync.Mutex
	instances     int
	lastScaleUp   time.Time
	lastScaleDown time.Time
}

// NewAutoScaler creates a scaler starting at initialInstances (clamped to
// [min, max]). Panics on nil metrics provider, applier or logger, and on a
// config where min < 1, max < min, or a target percentage is not positive.
//
// Called from cmd/main when building the pool.
func NewAutoScaler(cfg AutoScalerConfig, initialInstances int, metrics interfaces.MetricsProvider, applier interfaces.ScaleApplier, logger log.Logger) *AutoScaler {
	if cfg.MinInstances < 1 {
		panic("service.scaler.go: MinInstances must be >= 1")
	}
	if cfg.MaxInstances < cfg.MinInstances {
		panic("service.scaler.go: MaxInstances must be >= MinInstances")
	}
	if cfg.TargetCPUPercent <= 0 || cfg.TargetMemoryPercent <= 0 {
		panic("service.scaler.go: target percentages must be positive")
	}
	return &AutoScaler{
		cfg:       cfg,
		metrics:   helpers.NilPanic(metrics, "service.scaler.go: metrics provider is required"),
		applier:   helpers.NilPanic(applier, "service.scaler.go: applier is required"),
		logger:    log.With(helpers.NilPanic(logger, "service.scaler.go: logger is required"), "component", "auto_scaler"),
		instances: clamp(initialInstances, cfg.MinInstances, cfg.MaxInstances),
	}
}

// InstanceCount returns the current instance count.
func (a *AutoScaler) InstanceCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.instances
}

// Evaluate samples the metrics provider, decides whether to scale and, for
// a non-none decision, invokes the applier with the new instance count.
// Returns:
// 1) (decision, nil), where decision.Direction is ScaleNone when capacity is
// adequate, a cooldown is active, or the clamped target equals the current
// count;
// 2) (none, err) when metrics collection fails or the applier rejects the
// change; scaler state is left unchanged in both cases.
func (a *AutoScaler) Evaluate(ctx context.Context) (domain.ScalingDecision, error) {
	sample, err := a.metrics.Collect(ctx)
	if err != nil {
		level.Error(a.logger).Log("msg", "metrics collection failed", "err", err)
		return domain.ScalingDecision{Direction: domain.ScaleNone, Reason: "metrics unavailable"}, fmt.Errorf("collect metrics: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	decision, target := a.decideLocked(sample, time.Now())
	if decision.Direction == domain.ScaleNone {
		return decision, nil
	}

	if err := a.applier.ApplyScale(ctx, target); err != nil {
		level.Error(a.logger).Log(
			"msg", "apply scaling failed, keeping previous state",
			"direction", decision.Direction,
			"target", target,
			"err", err,
		)
		return domain.ScalingDecision{Direction: domain.ScaleNone, Reason: "apply scaling failed"}, fmt.Errorf("apply scaling to %d: %w", target, err)
	}

	a.instances = target
	now := time.Now()
	switch decision.Direction {
	case domain.ScaleUp:
		a.lastScaleUp = now
	case domain.ScaleDown:
		a.lastScaleDown = now
	}
	level.Info(a.logger).Log(
		"msg", "scaling applied",
		"direction", decision.Direction,
		"delta", decision.Delta,
		"instances", target,
		"reason", decision.Reason,
	)
	return decision, nil
}

// decideLocked evaluates triggers, cooldowns and bounds. Caller holds the
// mutex. Returns the decision and the clamped target instance count.
func (a *AutoScaler) decideLocked(m domain.Metrics, now time.Time) (domain.ScalingDecision, int) {
	current := a.instances

	cpuHigh := m.CPUPercent > a.cfg.TargetCPUPercent
	memHigh := m.MemoryPercent > a.cfg.TargetMemoryPercent
	queueHigh := m.QueueLength > 10*current

	if cpuHigh || memHigh || queueHigh {
		if now.Sub(a.lastScaleUp) < a.cfg.ScaleUpCooldown {
			return domain.ScalingDecision{Direction: domain.ScaleNone, Reason: "scale-up cooldown active"}, current
		}

		// Size the step on the worse of the two utilization ratios so one
		// evaluation can absorb a large spike.
		ratio := math.Max(m.CPUPercent/a.cfg.TargetCPUPercent, m.MemoryPercent/a.cfg.TargetMemoryPercent)
		target := int(math.Ceil(float64(current) * ratio))
		if target <= current {
			target = current + 1
		}
		target = clamp(target, a.cfg.MinInstances, a.cfg.MaxInstances)
		if target == current {
			return domain.ScalingDecision{Direction: domain.ScaleNone, Reason: "already at maximum instances"}, current
		}
		return domain.ScalingDecision{
			Direction: domain.ScaleUp,
			Delta:     target - current,
			Reason: fmt.Sprintf("cpu=%.1f%% mem=%.1f%% queue=%d exceed targets (cpu>%.1f%% mem>%.1f%% queue>%d)",
				m.CPUPercent, m.MemoryPercent, m.QueueLength, a.cfg.TargetCPUPercent, a.cfg.TargetMemoryPercent, 10*current),
		}, target
	}

	cpuLow := m.CPUPercent < 0.5*a.cfg.TargetCPUPercent
	memLow := m.MemoryPercent < 0.5*a.cfg.TargetMemoryPercent
	queueLow := m.QueueLength < 2*current

	if current > a.cfg.MinInstances && cpuLow && memLow && queueLow {
		if now.Sub(a.lastScaleDown) < a.cfg.ScaleDownCooldown {
			return domain.ScalingDecision{Direction: domain.ScaleNone, Reason: "scale-down cooldown active"}, current
		}
		// Scale-down steps one instance at a time.
		target := clamp(current-1, a.cfg.MinInstances, a.cfg.MaxInstances)
		if target == current {
			return domain.ScalingDecision{Direction: domain.ScaleNone, Reason: "already at minimum instances"}, current
		}
		return domain.ScalingDecision{
			Direction: domain.ScaleDown,
			Delta:     1,
			Reason: fmt.Sprintf("cpu=%.1f%% mem=%.1f%% queue=%d well below targets",
				m.CPUPercent, m.MemoryPercent, m.QueueLength),
		}, target
	}

	return domain.ScalingDecision{Direction: domain.ScaleNone, Reason: "load within targets"}, current
}

// Run drives Evaluate every interval until ctx is cancelled. Evaluation
// errors are already logged; Run keeps going.
func (a *AutoScaler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = a.Evaluate(ctx)
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
