package service

import (
	"math/rand"

	"agentpool/domain"
)

// Strategy selects how the load balancer picks an instance per request.
// Modeled as a closed set with a switch in pick rather than an interface:
// each strategy is a pure function of (healthy instances, shared counter,
// optional routing key), which keeps selection testable in isolation.
type Strategy int

const (
	// RoundRobin cycles through healthy instances via an atomic counter.
	RoundRobin Strategy = iota
	// LeastConnections picks the healthy instance with the fewest in-flight requests.
	LeastConnections
	// WeightedRoundRobin cycles proportionally to instance weights.
	WeightedRoundRobin
	// ConsistentHash routes a key to a stable instance via the hash ring,
	// falling back to round robin when no key is supplied.
	ConsistentHash
	// Random picks a healthy instance uniformly at random.
	Random
)

func (s Strategy) String() string {
	switch s {
	case RoundRobin:
		return "round_robin"
	case LeastConnections:
		return "least_connections"
	case WeightedRoundRobin:
		return "weighted_round_robin"
	case ConsistentHash:
		return "consistent_hash"
	case Random:
		return "random"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a config string to a Strategy, defaulting to RoundRobin.
func ParseStrategy(s string) Strategy {
	switch s {
	case "least_connections":
		return LeastConnections
	case "weighted_round_robin":
		return WeightedRoundRobin
	case "consistent_hash":
		return ConsistentHash
	case "random":
		return Random
	default:
		return RoundRobin
	}
}

// pickRoundRobin returns candidates[counter mod len]. The caller supplies a
// freshly incremented counter value, so no two concurrent calls land on the
// same value.
func pickRoundRobin(candidates []*domain.Instance, counter uint64) *domain.Instance {
	if len(candidates) == 0 {
		return nil
	}
	return candidates[counter%uint64(len(candidates))]
}

// pickLeastConnections returns the candidate with the minimum in-flight
// count, first wins on ties.
func pickLeastConnections(candidates []*domain.Instance) *domain.Instance {
	var best *domain.Instance
	for _, inst := range candidates {
		if best == nil || inst.ActiveRequests < best.ActiveRequests {
			best = inst
		}
	}
	return best
}

// pickWeighted takes the counter modulo the total weight and walks the
// candidates accumulating weight until the counter falls inside an
// instance's band. An instance with weight w is chosen w times per cycle.
func pickWeighted(candidates []*domain.Instance, counter uint64) *domain.Instance {
	if len(candidates) == 0 {
		return nil
	}
	total := 0
	for _, inst := range candidates {
		total += inst.EffectiveWeight()
	}
	slot := int(counter % uint64(total))
	acc := 0
	for _, inst := range candidates {
		acc += inst.EffectiveWeight()
		if slot < acc {
			return inst
		}
	}
	return candidates[len(candidates)-1]
}

// pickRandom returns a uniformly random candidate.
func pickRandom(candidates []*domain.Instance) *domain.Instance {
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rand.Intn(len(candidates))]
}
