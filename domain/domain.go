package domain

import "time"

// Instance represents a routable agent backend known to the load balancer.
// Fields match the registry feed: instance_id, service_name, endpoint, healthy, weight.
type Instance struct {
	InstanceID     string    // unique instance identifier
	ServiceName    string    // logical service this instance belongs to
	Endpoint       string    // network endpoint, e.g. "10.0.0.12:9000"
	Healthy        bool      // last known health state
	ActiveRequests int64     // current in-flight request count
	Weight         int       // relative selection weight, >= 1
	LastCheck      time.Time // when health was last reported
}

// EffectiveWeight returns the instance weight, treating unset or
// non-positive weights as 1.
func (i Instance) EffectiveWeight() int {
	if i.Weight < 1 {
		return 1
	}
	return i.Weight
}
