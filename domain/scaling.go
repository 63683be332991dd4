package domain

// ScaleDirection says which way (if any) the auto-scaler wants to move.
type ScaleDirection int

const (
	// ScaleNone means current capacity is adequate (or a cooldown is active).
	ScaleNone ScaleDirection = iota
	// ScaleUp means add Delta instances.
	ScaleUp
	// ScaleDown means remove Delta instances.
	ScaleDown
)

func (d ScaleDirection) String() string {
	switch d {
	case ScaleNone:
		return "none"
	case ScaleUp:
		return "scale-up"
	case ScaleDown:
		return "scale-down"
	default:
		return "unknown"
	}
}

// ScalingDecision is the outcome of one auto-scaler evaluation.
type ScalingDecision struct {
	Direction ScaleDirection
	Delta     int    // instance count change, 0 when Direction is ScaleNone
	Reason    string // human-readable explanation for operators
}

// Metrics is one sample of the load signals the auto-scaler evaluates.
// Supplied by an external telemetry collector.
type Metrics struct {
	CPUPercent    float64
	MemoryPercent float64
	QueueLength   int
}
