package domain

// CircuitState is the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed lets calls through and counts failures.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects calls immediately without invoking the downstream.
	CircuitOpen
	// CircuitHalfOpen lets a single trial call through after the reset timeout.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
