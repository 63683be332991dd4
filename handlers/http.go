// Package handlers contains the http admin surface of agentpool.
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"agentpool/domain"
	"agentpool/service"

	"github.com/go-kit/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HTTPServer exposes the control plane over HTTP for operators: the
// instance table, queue and breaker state, task submission and manual
// scaler evaluation.
type HTTPServer struct {
	balancer *service.LoadBalancer
	pool     *service.WorkerPool
	breaker  *service.CircuitBreaker
	scaler   *service.AutoScaler
	logger   log.Logger
}

// NewHTTPServer creates a new HTTPServer.
func NewHTTPServer(balancer *service.LoadBalancer, pool *service.WorkerPool, breaker *service.CircuitBreaker, scaler *service.AutoScaler, logger log.Logger) *HTTPServer {
	logger = log.WithPrefix(logger, "component", "HTTPServer")
	return &HTTPServer{
		balancer: balancer,
		pool:     pool,
		breaker:  breaker,
		scaler:   scaler,
		logger:   logger,
	}
}

// RegisterHandlers attaches all admin routes to the echo instance.
func RegisterHandlers(e *echo.Echo, s *HTTPServer) {
	e.GET("/v1/instances", s.GetInstances)
	e.POST("/v1/instances", s.RegisterInstance)
	e.DELETE("/v1/instances/:instance_id", s.UnregisterInstance)
	e.PUT("/v1/instances/:instance_id/health", s.SetInstanceHealth)
	e.GET("/v1/status", s.GetStatus)
	e.POST("/v1/tasks", s.SubmitTask)
	e.POST("/v1/scaler/evaluate", s.EvaluateScaler)
	e.POST("/v1/breaker/reset", s.ResetBreaker)
}

// GetInstances (GET /v1/instances) returns a snapshot of the instance table.
func (s *HTTPServer) GetInstances(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, toInstancesResponse(s.balancer.Snapshot()))
}

// RegisterInstance (POST /v1/instances) adds or updates an instance.
// A missing instance_id gets a generated one. Returns 200 with the stored
// record, 400 on validation error.
func (s *HTTPServer) RegisterInstance(ectx echo.Context) error {
	var req RegisterRequest
	if err := ectx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if req.ServiceName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "service_name is required")
	}
	if req.Endpoint == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "endpoint is required")
	}
	if req.InstanceId == "" {
		req.InstanceId = uuid.NewString()
	}

	inst := domain.Instance{
		InstanceID:  req.InstanceId,
		ServiceName: req.ServiceName,
		Endpoint:    req.Endpoint,
		Healthy:     true,
		Weight:      req.Weight,
		LastCheck:   time.Now(),
	}
	if err := s.balancer.Register(inst); err != nil {
		return fmt.Errorf("registerInstance failed to register '%s', err: %w", req.InstanceId, err)
	}

	return ectx.JSON(http.StatusOK, toInstanceInfo(inst))
}

// UnregisterInstance (DELETE /v1/instances/{instance_id}) removes the
// instance from the table. Unknown IDs are a no-op.
func (s *HTTPServer) UnregisterInstance(ectx echo.Context) error {
	s.balancer.Unregister(ectx.Param("instance_id"))
	return ectx.NoContent(http.StatusOK)
}

// SetInstanceHealth (PUT /v1/instances/{instance_id}/health) flips the
// instance's health flag. Returns 404 for unknown IDs.
func (s *HTTPServer) SetInstanceHealth(ectx echo.Context) error {
	var req HealthRequest
	if err := ectx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}

	instanceID := ectx.Param("instance_id")
	if !s.balancer.SetHealth(instanceID, req.Healthy) {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("instance '%s' is not registered", instanceID))
	}

	return ectx.NoContent(http.StatusOK)
}

// GetStatus (GET /v1/status) reports queue depth, breaker state and
// instance counts in one document.
func (s *HTTPServer) GetStatus(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, StatusResponse{
		QueueLength:      s.pool.QueueLen(),
		QueueCapacity:    s.pool.QueueCap(),
		BreakerState:     s.breaker.State().String(),
		Instances:        s.balancer.Len(),
		HealthyInstances: s.balancer.HealthyLen(),
		ScalerInstances:  s.scaler.InstanceCount(),
	})
}

// SubmitTask (POST /v1/tasks) enqueues the payload and waits for the
// executor's result. The wait is bounded by the request context, so a
// client disconnect abandons the item without blocking a worker slot.
func (s *HTTPServer) SubmitTask(ectx echo.Context) error {
	var req TaskRequest
	if err := ectx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if len(req.Payload) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "payload is required")
	}

	ctx := ectx.Request().Context()
	item, err := s.pool.Submit(ctx, []byte(req.Payload))
	if err != nil {
		return fmt.Errorf("submitTask failed to enqueue, err: %w", err)
	}

	result, err := item.Wait(ctx)
	if err != nil {
		return fmt.Errorf("submitTask execution failed, err: %w", err)
	}

	return ectx.JSON(http.StatusOK, TaskResponse{Result: result})
}

// EvaluateScaler (POST /v1/scaler/evaluate) runs one scaling evaluation
// immediately instead of waiting for the periodic tick.
func (s *HTTPServer) EvaluateScaler(ectx echo.Context) error {
	decision, err := s.scaler.Evaluate(ectx.Request().Context())
	if err != nil {
		return fmt.Errorf("evaluateScaler failed, err: %w", err)
	}

	return ectx.JSON(http.StatusOK, ScaleResponse{
		Direction: decision.Direction.String(),
		Delta:     decision.Delta,
		Reason:    decision.Reason,
		Instances: s.scaler.InstanceCount(),
	})
}

// ResetBreaker (POST /v1/breaker/reset) forces the circuit breaker back
// to closed.
func (s *HTTPServer) ResetBreaker(ectx echo.Context) error {
	s.breaker.Reset()
	return ectx.NoContent(http.StatusOK)
}

func toInstancesResponse(instances []domain.Instance) InstancesResponse {
	out := make([]InstanceInfo, 0, len(instances))
	for _, i := range instances {
		out = append(out, toInstanceInfo(i))
	}
	return InstancesResponse{Instances: out}
}

func toInstanceInfo(i domain.Instance) InstanceInfo {
	return InstanceInfo{
		InstanceId:     i.InstanceID,
		ServiceName:    i.ServiceName,
		Endpoint:       i.Endpoint,
		Healthy:        i.Healthy,
		ActiveRequests: i.ActiveRequests,
		Weight:         i.EffectiveWeight(),
	}
}
