package handlers

import (
	"errors"
	"net/http"

	"agentpool/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// APIError is the machine-readable error document returned to API consumers.
type APIError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ErrResponse from server.
type ErrResponse struct {
	Error *APIError `json:"error,omitempty"`
}

// RegisterErrorHandler register custom error handler.
func RegisterErrorHandler(e *echo.Echo, logger log.Logger) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger).Handler
}

// HTTPErrorHandler maps control-plane errors to http responses.
type HTTPErrorHandler struct {
	logger log.Logger
}

// NewHTTPErrorHandler creates a new instance of the HTTPErrorHandler.
func NewHTTPErrorHandler(logger log.Logger) *HTTPErrorHandler {
	return &HTTPErrorHandler{logger: logger}
}

// Handler handles errors returned by echo handlers. Sentinel errors from
// the service layer map to stable codes and statuses; everything else is
// an internal server error.
func (h *HTTPErrorHandler) Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	statusCode := http.StatusInternalServerError
	apiErr := &APIError{Code: "internal_server_error", Message: "an internal server error has occurred"}

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		statusCode = he.Code
		apiErr.Code = codeForStatus(he.Code)
		if m, ok := he.Message.(string); ok {
			apiErr.Message = m
		}
	case errors.Is(err, service.ErrBreakerOpen):
		statusCode = http.StatusServiceUnavailable
		apiErr = &APIError{Code: "breaker_open", Message: "circuit breaker is open"}
	case errors.Is(err, service.ErrNoHealthyInstance):
		statusCode = http.StatusServiceUnavailable
		apiErr = &APIError{Code: "no_healthy_instance", Message: "no healthy instance is available"}
	case errors.Is(err, service.ErrQueueClosed):
		statusCode = http.StatusServiceUnavailable
		apiErr = &APIError{Code: "queue_closed", Message: "work queue is shut down"}
	case errors.Is(err, service.ErrLockAcquireTimeout):
		statusCode = http.StatusConflict
		apiErr = &APIError{Code: "lock_held", Message: "resource lock is held by another process"}
	}

	level.Error(h.logger).Log(
		"msg", "HTTP request error",
		"err", err,
	)

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(statusCode)
		} else {
			_ = c.JSON(statusCode, ErrResponse{Error: apiErr})
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_parameter"
	case http.StatusNotFound:
		return "entity_not_found"
	default:
		return "internal_server_error"
	}
}
