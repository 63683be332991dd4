package interfaces

import "context"

// Executor runs one unit of agent work. Supplied by the surrounding
// agent-execution subsystem; the worker pool only routes payloads to it.
//
//go:generate moq -stub -out mock/executor.go -pkg mock . Executor
type Executor interface {
	// Execute runs the payload to completion or until ctx is cancelled.
	// Returns:
	// 1) (result, nil) on success;
	// 2) (nil, ctx.Err()) when the combined item/pool signal is cancelled;
	// 3) (nil, err) on any execution failure.
	Execute(ctx context.Context, payload any) (any, error)
}
