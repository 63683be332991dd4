package service

import (
	"context"
	"fmt"

	"agentpool/domain"
	"agentpool/helpers"

	"github.com/go-kit/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// PoolMetricsProvider samples host CPU and memory utilization and reads
// the work queue depth, producing the signals the auto-scaler evaluates.
type PoolMetricsProvider struct {
	queue  *BoundedQueue[*WorkItem]
	logger log.Logger
}

// NewPoolMetricsProvider creates a provider reading from the host and the
// given queue.
//
// Called from cmd/main when building the scaler.
func NewPoolMetricsProvider(queue *BoundedQueue[*WorkItem], logger log.Logger) *PoolMetricsProvider {
	return &PoolMetricsProvider{
		queue:  helpers.NilPanic(queue, "service.metrics.go: queue is required"),
		logger: log.With(helpers.NilPanic(logger, "service.metrics.go: logger is required"), "component", "pool_metrics"),
	}
}

// Collect returns one sample. CPU percent is measured since the previous
// call, so the first sample after startup reads near zero.
func (p *PoolMetricsProvider) Collect(ctx context.Context) (domain.Metrics, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("sample cpu: %w", err)
	}
	var cpuPercent float64
	if len(percents) > 0 {
		cpuPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("sample memory: %w", err)
	}

	return domain.Metrics{
		CPUPercent:    cpuPercent,
		MemoryPercent: vm.UsedPercent,
		QueueLength:   p.queue.Count(),
	}, nil
}
