package interfaces

import (
	"context"

	"agentpool/domain"
)

// MetricsProvider returns the current load signals for scaling decisions.
// Supplied by an external telemetry collector.
//
//go:generate moq -stub -out mock/metrics.go -pkg mock . MetricsProvider
type MetricsProvider interface {
	// Collect returns a point-in-time sample of CPU%, memory% and queue length.
	Collect(ctx context.Context) (domain.Metrics, error)
}

// ScaleApplier performs the actual provisioning when the auto-scaler
// decides to change capacity (e.g. a container orchestrator call).
//
//go:generate moq -stub -out mock/scale_applier.go -pkg mock . ScaleApplier
type ScaleApplier interface {
	// ApplyScale provisions or decommissions instances until the pool
	// matches target. A non-nil error means no change was made.
	ApplyScale(ctx context.Context, target int) error
}
