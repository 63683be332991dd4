package handlers

import "encoding/json"

// RegisterRequest is the body of POST /v1/instances.
type RegisterRequest struct {
	InstanceId  string `json:"instance_id"`
	ServiceName string `json:"service_name"`
	Endpoint    string `json:"endpoint"`
	Weight      int    `json:"weight,omitempty"`
}

// HealthRequest is the body of PUT /v1/instances/{instance_id}/health.
type HealthRequest struct {
	Healthy bool `json:"healthy"`
}

// InstanceInfo is one routable instance as seen by operators.
type InstanceInfo struct {
	InstanceId     string `json:"instance_id"`
	ServiceName    string `json:"service_name"`
	Endpoint       string `json:"endpoint"`
	Healthy        bool   `json:"healthy"`
	ActiveRequests int64  `json:"active_requests"`
	Weight         int    `json:"weight"`
}

// InstancesResponse is the body of GET /v1/instances.
type InstancesResponse struct {
	Instances []InstanceInfo `json:"instances"`
}

// StatusResponse is the body of GET /v1/status.
type StatusResponse struct {
	QueueLength      int    `json:"queue_length"`
	QueueCapacity    int    `json:"queue_capacity"`
	BreakerState     string `json:"breaker_state"`
	Instances        int    `json:"instances"`
	HealthyInstances int    `json:"healthy_instances"`
	ScalerInstances  int    `json:"scaler_instances"`
}

// TaskRequest is the body of POST /v1/tasks. The payload is opaque to the
// control plane and handed to the executor as-is.
type TaskRequest struct {
	Payload json.RawMessage `json:"payload"`
}

// TaskResponse is the body of a completed POST /v1/tasks.
type TaskResponse struct {
	Result any `json:"result"`
}

// ScaleResponse is the body of POST /v1/scaler/evaluate.
type ScaleResponse struct {
	Direction string `json:"direction"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	Instances int    `json:"instances"`
}
