package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"agentpool/domain"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcherBalancer(t *testing.T, strategy Strategy) *LoadBalancer {
	t.Helper()
	return NewLoadBalancer(LoadBalancerConfig{Strategy: strategy, MarkUnhealthyOnFailure: true}, log.NewNopLogger())
}

func registerBackend(t *testing.T, lb *LoadBalancer, id string, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	endpoint := strings.TrimPrefix(srv.URL, "http://")
	require.NoError(t, lb.Register(domain.Instance{InstanceID: id, ServiceName: "agent-worker", Endpoint: endpoint, Healthy: true}))
	return srv
}

func TestJSONAffinityKey(t *testing.T) {
	assert.Equal(t, "sess-1", JSONAffinityKey([]byte(`{"session_id":"sess-1","prompt":"hi"}`)))
	assert.Equal(t, "", JSONAffinityKey([]byte(`{"prompt":"hi"}`)))
	assert.Equal(t, "", JSONAffinityKey([]byte(`not json`)))
	assert.Equal(t, "", JSONAffinityKey(42))
}

func TestAgentDispatcher_Execute(t *testing.T) {
	ctx := context.Background()
	logger := log.NewNopLogger()

	t.Run("returns decoded JSON result", func(t *testing.T) {
		lb := newDispatcherBalancer(t, RoundRobin)
		registerBackend(t, lb, "inst-1", func(w http.ResponseWriter, r *http.Request) {
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "hello", req["prompt"])
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"answer":"world"}`))
		})

		breaker := NewCircuitBreaker("agent-call", 3, time.Minute, logger)
		d := NewAgentDispatcher(lb, breaker, nil, JSONAffinityKey, logger)

		result, err := d.Execute(ctx, []byte(`{"prompt":"hello"}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"answer": "world"}, result)
	})

	t.Run("non-JSON body comes back as string", func(t *testing.T) {
		lb := newDispatcherBalancer(t, RoundRobin)
		registerBackend(t, lb, "inst-1", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("plain text"))
		})

		breaker := NewCircuitBreaker("agent-call", 3, time.Minute, logger)
		d := NewAgentDispatcher(lb, breaker, nil, nil, logger)

		result, err := d.Execute(ctx, []byte(`{}`))
		require.NoError(t, err)
		assert.Equal(t, "plain text", result)
	})

	t.Run("marshals non-byte payloads", func(t *testing.T) {
		lb := newDispatcherBalancer(t, RoundRobin)
		registerBackend(t, lb, "inst-1", func(w http.ResponseWriter, r *http.Request) {
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "hello", req["prompt"])
			_, _ = w.Write([]byte(`"ok"`))
		})

		breaker := NewCircuitBreaker("agent-call", 3, time.Minute, logger)
		d := NewAgentDispatcher(lb, breaker, nil, nil, logger)

		result, err := d.Execute(ctx, map[string]string{"prompt": "hello"})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
	})

	t.Run("fails over to a healthy instance", func(t *testing.T) {
		lb := newDispatcherBalancer(t, RoundRobin)
		registerBackend(t, lb, "inst-bad", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		var goodCalls atomic.Int64
		registerBackend(t, lb, "inst-good", func(w http.ResponseWriter, r *http.Request) {
			goodCalls.Add(1)
			_, _ = w.Write([]byte(`"ok"`))
		})

		breaker := NewCircuitBreaker("agent-call", 10, time.Minute, logger)
		d := NewAgentDispatcher(lb, breaker, nil, nil, logger)

		for i := 0; i < 4; i++ {
			result, err := d.Execute(ctx, []byte(`{}`))
			require.NoError(t, err)
			assert.Equal(t, "ok", result)
		}
		assert.Equal(t, int64(4), goodCalls.Load())
		// The failing instance was marked unhealthy on its first miss.
		assert.Equal(t, 1, lb.HealthyLen())
	})

	t.Run("opens the breaker when every instance fails", func(t *testing.T) {
		lb := NewLoadBalancer(LoadBalancerConfig{Strategy: RoundRobin}, logger)
		registerBackend(t, lb, "inst-bad", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		breaker := NewCircuitBreaker("agent-call", 2, time.Minute, logger)
		d := NewAgentDispatcher(lb, breaker, nil, nil, logger)

		for i := 0; i < 2; i++ {
			_, err := d.Execute(ctx, []byte(`{}`))
			require.Error(t, err)
		}
		require.Equal(t, domain.CircuitOpen, breaker.State())

		_, err := d.Execute(ctx, []byte(`{}`))
		assert.ErrorIs(t, err, ErrBreakerOpen)
	})

	t.Run("no instances registered", func(t *testing.T) {
		lb := newDispatcherBalancer(t, RoundRobin)
		breaker := NewCircuitBreaker("agent-call", 3, time.Minute, logger)
		d := NewAgentDispatcher(lb, breaker, nil, nil, logger)

		_, err := d.Execute(ctx, []byte(`{}`))
		assert.ErrorIs(t, err, ErrNoHealthyInstance)
	})
}
