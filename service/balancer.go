package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"agentpool/domain"
	"agentpool/helpers"
	"agentpool/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const defaultRetryBudget = 3

// LoadBalancerConfig configures instance selection and failover.
type LoadBalancerConfig struct {
	// Strategy is the selection strategy used by GetInstance.
	Strategy Strategy
	// VirtualNodes is the ring positions per instance for ConsistentHash;
	// 0 means the default (150).
	VirtualNodes int
	// RetryBudget is the max attempts ExecuteWithFailover makes, each
	// against a distinct instance; 0 means the default (3).
	RetryBudget int
	// MarkUnhealthyOnFailure controls whether a failing instance is marked
	// unhealthy immediately during failover (the aggressive source
	// behavior). Set false to leave health to per-instance circuit
	// breakers or the registry feed.
	MarkUnhealthyOnFailure bool
}

// LoadBalancer owns the instance table and hash ring for one backend pool
// and selects an instance per request. Mutations (register, unregister,
// health and load updates, registry sync) take the write lock; selection
// runs under the read lock and never observes a half-updated ring. The
// round-robin and weighted counters are per-balancer atomics, so
// independent balancers do not interfere.
type LoadBalancer struct {
	strategy               Strategy
	retryBudget            int
	markUnhealthyOnFailure bool
	logger                 log.Logger

	rrCounter  uint64 // atomic
	wrrCounter uint64 // atomic

	mu        sync.RWMutex
	instances map[string]*domain.Instance
	order     []string // registration order, drives deterministic walks
	ring      *hashRing
}

// NewLoadBalancer creates a balancer with the given config. Panics on nil
// logger (fail-fast at startup).
//
// Called from cmd/main when building the pool.
func NewLoadBalancer(cfg LoadBalancerConfig, logger log.Logger) *LoadBalancer {
	retryBudget := cfg.RetryBudget
	if retryBudget < 1 {
		retryBudget = defaultRetryBudget
	}
	return &LoadBalancer{
		strategy:               cfg.Strategy,
		retryBudget:            retryBudget,
		markUnhealthyOnFailure: cfg.MarkUnhealthyOnFailure,
		logger:                 log.With(helpers.NilPanic(logger, "service.balancer.go: logger is required"), "component", "load_balancer"),
		instances:              make(map[string]*domain.Instance),
		ring:                   newHashRing(cfg.VirtualNodes),
	}
}

// Register adds the instance to the table and ring, or updates endpoint,
// service name, weight and health in place when the ID is already known
// (in-flight count is preserved). Returns an error on an empty instance ID.
func (lb *LoadBalancer) Register(inst domain.Instance) error {
	if inst.InstanceID == "" {
		return errors.New("instance id is required")
	}
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.upsertLocked(inst)
	return nil
}

// upsertLocked merges inst into the table; ring entries are added only for
// new IDs so the ring invariant (entries iff registered) holds.
func (lb *LoadBalancer) upsertLocked(inst domain.Instance) {
	if existing, ok := lb.instances[inst.InstanceID]; ok {
		existing.ServiceName = inst.ServiceName
		existing.Endpoint = inst.Endpoint
		existing.Weight = inst.EffectiveWeight()
		existing.Healthy = inst.Healthy
		existing.LastCheck = time.Now()
		return
	}
	stored := inst
	stored.Weight = inst.EffectiveWeight()
	stored.ActiveRequests = 0
	stored.LastCheck = time.Now()
	lb.instances[inst.InstanceID] = &stored
	lb.order = append(lb.order, inst.InstanceID)
	lb.ring.add(inst.InstanceID)
}

// Unregister removes the instance and exactly its virtual nodes. Unknown
// IDs are a no-op.
func (lb *LoadBalancer) Unregister(instanceID string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.removeLocked(instanceID)
}

func (lb *LoadBalancer) removeLocked(instanceID string) {
	if _, ok := lb.instances[instanceID]; !ok {
		return
	}
	delete(lb.instances, instanceID)
	for i, id := range lb.order {
		if id == instanceID {
			lb.order = append(lb.order[:i], lb.order[i+1:]...)
			break
		}
	}
	lb.ring.remove(instanceID)
}

// SetHealth reports health back into the instance table. Returns false for
// an unknown ID.
func (lb *LoadBalancer) SetHealth(instanceID string, healthy bool) bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	inst, ok := lb.instances[instanceID]
	if !ok {
		return false
	}
	inst.Healthy = healthy
	inst.LastCheck = time.Now()
	return true
}

// ReportLoad adjusts the instance's in-flight request count by delta
// (negative to release). Returns false for an unknown ID.
func (lb *LoadBalancer) ReportLoad(instanceID string, delta int64) bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	inst, ok := lb.instances[instanceID]
	if !ok {
		return false
	}
	inst.ActiveRequests += delta
	if inst.ActiveRequests < 0 {
		inst.ActiveRequests = 0
	}
	return true
}

// GetInstance selects one healthy instance under the configured strategy.
// key is the routing key for ConsistentHash and is ignored by the other
// strategies.
// Returns:
// 1) (instance copy, nil) on success;
// 2) (zero, ErrNoHealthyInstance) when no healthy instance is registered.
func (lb *LoadBalancer) GetInstance(key string) (domain.Instance, error) {
	return lb.getInstanceExcluding(key, nil)
}

func (lb *LoadBalancer) getInstanceExcluding(key string, exclude map[string]struct{}) (domain.Instance, error) {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	chosen := lb.selectLocked(lb.strategy, key, exclude)
	if chosen == nil {
		return domain.Instance{}, ErrNoHealthyInstance
	}
	return *chosen, nil
}

// selectLocked picks among healthy, non-excluded instances. Caller holds at
// least the read lock.
func (lb *LoadBalancer) selectLocked(strategy Strategy, key string, exclude map[string]struct{}) *domain.Instance {
	candidates := lb.healthyLocked(exclude)
	if len(candidates) == 0 {
		return nil
	}

	switch strategy {
	case LeastConnections:
		return pickLeastConnections(candidates)
	case WeightedRoundRobin:
		return pickWeighted(candidates, atomic.AddUint64(&lb.wrrCounter, 1)-1)
	case ConsistentHash:
		if key == "" || lb.ring.len() == 0 {
			return pickRoundRobin(candidates, atomic.AddUint64(&lb.rrCounter, 1)-1)
		}
		owner := lb.ring.lookup(key, func(id string) bool {
			inst, ok := lb.instances[id]
			if !ok || !inst.Healthy {
				return false
			}
			if exclude != nil {
				if _, skip := exclude[id]; skip {
					return false
				}
			}
			return true
		})
		if owner == "" {
			return nil
		}
		return lb.instances[owner]
	case Random:
		return pickRandom(candidates)
	default:
		return pickRoundRobin(candidates, atomic.AddUint64(&lb.rrCounter, 1)-1)
	}
}

// healthyLocked returns healthy, non-excluded instances in registration
// order. Caller holds at least the read lock.
func (lb *LoadBalancer) healthyLocked(exclude map[string]struct{}) []*domain.Instance {
	candidates := make([]*domain.Instance, 0, len(lb.order))
	for _, id := range lb.order {
		inst := lb.instances[id]
		if !inst.Healthy {
			continue
		}
		if exclude != nil {
			if _, skip := exclude[id]; skip {
				continue
			}
		}
		candidates = append(candidates, inst)
	}
	return candidates
}

// ExecuteWithFailover runs action against a chosen instance, retrying on
// failure against instances not yet tried, up to the retry budget. The
// chosen instance's in-flight count is held for the duration of each
// attempt. A failing instance is marked unhealthy immediately when
// MarkUnhealthyOnFailure is set. Context cancellation aborts the loop and
// is returned as-is, never counted against an instance.
// Returns:
// 1) nil when an attempt succeeds;
// 2) ctx.Err() on cancellation;
// 3) an error wrapping ErrNoHealthyInstance when candidates or the budget
// are exhausted.
func (lb *LoadBalancer) ExecuteWithFailover(ctx context.Context, key string, action func(ctx context.Context, inst domain.Instance) error) error {
	if action == nil {
		return errors.New("action is required")
	}

	tried := make(map[string]struct{}, lb.retryBudget)
	var lastErr error
	for attempt := 1; attempt <= lb.retryBudget; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		inst, err := lb.getInstanceExcluding(key, tried)
		if err != nil {
			if lastErr != nil {
				return fmt.Errorf("no instance left after %d attempts (last error: %v): %w", attempt-1, lastErr, ErrNoHealthyInstance)
			}
			return err
		}
		tried[inst.InstanceID] = struct{}{}

		lb.ReportLoad(inst.InstanceID, 1)
		err = action(ctx, inst)
		lb.ReportLoad(inst.InstanceID, -1)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		lastErr = err
		if lb.markUnhealthyOnFailure {
			lb.SetHealth(inst.InstanceID, false)
		}
		level.Warn(lb.logger).Log(
			"msg", "failover attempt failed",
			"instance_id", inst.InstanceID,
			"attempt", attempt,
			"err", err,
		)
	}
	return fmt.Errorf("failover budget of %d exhausted (last error: %v): %w", lb.retryBudget, lastErr, ErrNoHealthyInstance)
}

// SyncFromRegistry bulk-reconciles the instance table against the external
// registry feed: unknown instances are registered, known ones updated in
// place, vanished ones unregistered (their virtual nodes with them).
// Returns the feed error unchanged when the fetch fails; the table is left
// untouched in that case.
func (lb *LoadBalancer) SyncFromRegistry(ctx context.Context, registry interfaces.Registry) error {
	if registry == nil {
		return errors.New("registry is required")
	}
	feed, err := registry.GetInstances(ctx)
	if err != nil {
		return fmt.Errorf("registry sync: %w", err)
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	seen := make(map[string]struct{}, len(feed))
	for _, inst := range feed {
		if inst.InstanceID == "" {
			continue
		}
		seen[inst.InstanceID] = struct{}{}
		lb.upsertLocked(inst)
	}
	for _, id := range append([]string(nil), lb.order...) {
		if _, ok := seen[id]; !ok {
			lb.removeLocked(id)
		}
	}
	level.Debug(lb.logger).Log("msg", "registry sync complete", "instances", len(lb.order))
	return nil
}

// Snapshot returns copies of all registered instances in registration order.
func (lb *LoadBalancer) Snapshot() []domain.Instance {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	out := make([]domain.Instance, 0, len(lb.order))
	for _, id := range lb.order {
		out = append(out, *lb.instances[id])
	}
	return out
}

// Len reports the number of registered instances.
func (lb *LoadBalancer) Len() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return len(lb.instances)
}

// HealthyLen reports the number of healthy registered instances.
func (lb *LoadBalancer) HealthyLen() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return len(lb.healthyLocked(nil))
}
