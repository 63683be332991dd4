package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"agentpool/domain"
	"agentpool/helpers"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// AffinityKeyFunc extracts the session affinity key from a work payload.
// An empty key means the payload has no affinity and any instance will do.
type AffinityKeyFunc func(payload any) string

// JSONAffinityKey reads the "session_id" field from a JSON payload.
// Non-JSON payloads and payloads without the field yield no affinity.
func JSONAffinityKey(payload any) string {
	raw, ok := payload.([]byte)
	if !ok {
		return ""
	}
	var probe struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.SessionID
}

// AgentDispatcher executes work payloads against pool instances. Each
// execution goes through the circuit breaker and, inside it, the
// balancer's failover loop, so a run of downstream failures both rotates
// instances and eventually opens the circuit.
type AgentDispatcher struct {
	balancer *LoadBalancer
	breaker  *CircuitBreaker
	client   *http.Client
	keyFunc  AffinityKeyFunc
	logger   log.Logger
}

// NewAgentDispatcher creates a dispatcher sending payloads to instance
// endpoints over HTTP POST /execute. A nil client falls back to
// http.DefaultClient, a nil keyFunc disables affinity.
//
// Called from cmd/main; wired into the worker pool as its executor.
func NewAgentDispatcher(balancer *LoadBalancer, breaker *CircuitBreaker, client *http.Client, keyFunc AffinityKeyFunc, logger log.Logger) *AgentDispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &AgentDispatcher{
		balancer: helpers.NilPanic(balancer, "service.dispatcher.go: balancer is required"),
		breaker:  helpers.NilPanic(breaker, "service.dispatcher.go: breaker is required"),
		client:   client,
		keyFunc:  keyFunc,
		logger:   log.With(helpers.NilPanic(logger, "service.dispatcher.go: logger is required"), "component", "dispatcher"),
	}
}

// Execute sends the payload to one healthy instance, failing over per the
// balancer's budget. Returns the response body decoded as JSON when
// possible, raw bytes otherwise.
func (d *AgentDispatcher) Execute(ctx context.Context, payload any) (any, error) {
	body, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}

	var key string
	if d.keyFunc != nil {
		key = d.keyFunc(payload)
	}

	var responseBody []byte
	err = d.breaker.Execute(ctx, func(ctx context.Context) error {
		return d.balancer.ExecuteWithFailover(ctx, key, func(ctx context.Context, inst domain.Instance) error {
			out, err := d.post(ctx, inst, body)
			if err != nil {
				level.Warn(d.logger).Log("msg", "instance call failed", "instance_id", inst.InstanceID, "err", err)
				return err
			}
			responseBody = out
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return decodeResult(responseBody), nil
}

func (d *AgentDispatcher) post(ctx context.Context, inst domain.Instance, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+inst.Endpoint+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request for '%s': %w", inst.InstanceID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call instance '%s': %w", inst.InstanceID, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from '%s': %w", inst.InstanceID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("instance '%s' returned status %d", inst.InstanceID, resp.StatusCode)
	}

	return out, nil
}

func encodePayload(payload any) ([]byte, error) {
	if raw, ok := payload.([]byte); ok {
		return raw, nil
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("can't marshal payload of type %T: %w", payload, err)
	}
	return out, nil
}

// decodeResult prefers structured JSON so the admin API can re-serialize
// it; opaque bodies come back as a string.
func decodeResult(body []byte) any {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return string(body)
	}
	return decoded
}
