package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/snkrtools/snkr-price-watch/internal/engine"
)

// MonitorController defines the engine methods required by the monitor
// handler.
type MonitorController interface {
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool
	RunCycle(ctx context.Context) error
}

// MonitorHandler controls the background monitoring loop.
type MonitorHandler struct {
	monitor MonitorController
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(m MonitorController) *MonitorHandler {
	return &MonitorHandler{monitor: m}
}

// MonitorStatusOutput reports whether the monitoring loop is running.
type MonitorStatusOutput struct {
	Body struct {
		Running bool `json:"running"`
	}
}

// Status returns the current monitor state.
func (h *MonitorHandler) Status(
	_ context.Context,
	_ *struct{},
) (*MonitorStatusOutput, error) {
	out := &MonitorStatusOutput{}
	out.Body.Running = h.monitor.IsRunning()

	return out, nil
}

// Start launches the background monitoring loop.
func (h *MonitorHandler) Start(
	ctx context.Context,
	_ *struct{},
) (*MonitorStatusOutput, error) {
	if err := h.monitor.Start(ctx); err != nil {
		if errors.Is(err, engine.ErrAlreadyRunning) {
			return nil, huma.Error409Conflict("monitor is already running")
		}

		return nil, huma.Error500InternalServerError("starting monitor failed: " + err.Error())
	}

	out := &MonitorStatusOutput{}
	out.Body.Running = true

	return out, nil
}

// Stop halts the background monitoring loop. An in-flight cycle is
// cancelled rather than waited out.
func (h *MonitorHandler) Stop(
	_ context.Context,
	_ *struct{},
) (*MonitorStatusOutput, error) {
	if err := h.monitor.Stop(); err != nil {
		if errors.Is(err, engine.ErrNotRunning) {
			return nil, huma.Error409Conflict("monitor is not running")
		}

		return nil, huma.Error500InternalServerError("stopping monitor failed: " + err.Error())
	}

	out := &MonitorStatusOutput{}
	out.Body.Running = false

	return out, nil
}

// RunCycleOutput is the response for a manually triggered cycle.
type RunCycleOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

// RunCycle executes a single monitoring cycle synchronously. Useful for
// verifying a setup without waiting for the next scheduled pass.
func (h *MonitorHandler) RunCycle(
	ctx context.Context,
	_ *struct{},
) (*RunCycleOutput, error) {
	if err := h.monitor.RunCycle(ctx); err != nil {
		return nil, huma.Error500InternalServerError("monitoring cycle failed: " + err.Error())
	}

	out := &RunCycleOutput{}
	out.Body.Message = "cycle completed"

	return out, nil
}

// RegisterMonitorRoutes registers monitor control endpoints with the
// Huma API.
func RegisterMonitorRoutes(api huma.API, h *MonitorHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-monitor-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/monitor",
		Summary:     "Get monitor status",
		Tags:        []string{"monitor"},
	}, h.Status)

	huma.Register(api, huma.Operation{
		OperationID: "start-monitor",
		Method:      http.MethodPost,
		Path:        "/api/v1/monitor/start",
		Summary:     "Start the monitoring loop",
		Tags:        []string{"monitor"},
		Errors:      []int{http.StatusConflict, http.StatusInternalServerError},
	}, h.Start)

	huma.Register(api, huma.Operation{
		OperationID: "stop-monitor",
		Method:      http.MethodPost,
		Path:        "/api/v1/monitor/stop",
		Summary:     "Stop the monitoring loop",
		Tags:        []string{"monitor"},
		Errors:      []int{http.StatusConflict, http.StatusInternalServerError},
	}, h.Stop)

	huma.Register(api, huma.Operation{
		OperationID: "run-monitor-cycle",
		Method:      http.MethodPost,
		Path:        "/api/v1/monitor/cycle",
		Summary:     "Run one monitoring cycle now",
		Tags:        []string{"monitor"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.RunCycle)
}
