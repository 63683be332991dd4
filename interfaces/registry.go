package interfaces

import (
	"context"

	"agentpool/domain"
)

// Registry is a pull feed of registered instances used to bulk-synchronize
// the load balancer's instance table with external service discovery.
//
//go:generate moq -stub -out mock/registry.go -pkg mock . Registry
type Registry interface {
	// GetInstances returns the instances currently registered with the feed.
	// Returns:
	// 1) (instances, nil) when there is at least one instance;
	// 2) (nil, nil) when the feed is empty;
	// 3) (nil, err) on a feed error.
	GetInstances(ctx context.Context) ([]domain.Instance, error)
}
