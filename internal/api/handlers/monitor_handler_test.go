package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snkrtools/snkr-price-watch/internal/api/handlers"
	"github.com/snkrtools/snkr-price-watch/internal/engine"
)

// mockMonitor is a test double for MonitorController.
type mockMonitor struct {
	running   bool
	startErr  error
	stopErr   error
	cycleErr  error
	cycleRuns int
}

func (m *mockMonitor) Start(_ context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.running = true
	return nil
}

func (m *mockMonitor) Stop() error {
	if m.stopErr != nil {
		return m.stopErr
	}
	m.running = false
	return nil
}

func (m *mockMonitor) IsRunning() bool { return m.running }

func (m *mockMonitor) RunCycle(_ context.Context) error {
	m.cycleRuns++
	return m.cycleErr
}

func TestMonitorStatus(t *testing.T) {
	t.Parallel()

	h := handlers.NewMonitorHandler(&mockMonitor{running: true})

	_, api := humatest.New(t)
	handlers.RegisterMonitorRoutes(api, h)

	resp := api.Get("/api/v1/monitor")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"running":true`)
}

func TestStartMonitor_Success(t *testing.T) {
	t.Parallel()

	monitor := &mockMonitor{}
	h := handlers.NewMonitorHandler(monitor)

	_, api := humatest.New(t)
	handlers.RegisterMonitorRoutes(api, h)

	resp := api.Post("/api/v1/monitor/start")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, monitor.running)
	assert.Contains(t, resp.Body.String(), `"running":true`)
}

func TestStartMonitor_AlreadyRunning(t *testing.T) {
	t.Parallel()

	h := handlers.NewMonitorHandler(&mockMonitor{startErr: engine.ErrAlreadyRunning})

	_, api := humatest.New(t)
	handlers.RegisterMonitorRoutes(api, h)

	resp := api.Post("/api/v1/monitor/start")
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "already running")
}

func TestStopMonitor_Success(t *testing.T) {
	t.Parallel()

	monitor := &mockMonitor{running: true}
	h := handlers.NewMonitorHandler(monitor)

	_, api := humatest.New(t)
	handlers.RegisterMonitorRoutes(api, h)

	resp := api.Post("/api/v1/monitor/stop")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, monitor.running)
}

func TestStopMonitor_NotRunning(t *testing.T) {
	t.Parallel()

	h := handlers.NewMonitorHandler(&mockMonitor{stopErr: engine.ErrNotRunning})

	_, api := humatest.New(t)
	handlers.RegisterMonitorRoutes(api, h)

	resp := api.Post("/api/v1/monitor/stop")
	require.Equal(t, http.StatusConflict, resp.Code)
}

func TestRunCycle_Success(t *testing.T) {
	t.Parallel()

	monitor := &mockMonitor{}
	h := handlers.NewMonitorHandler(monitor)

	_, api := humatest.New(t)
	handlers.RegisterMonitorRoutes(api, h)

	resp := api.Post("/api/v1/monitor/cycle")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, monitor.cycleRuns)
	assert.Contains(t, resp.Body.String(), "cycle completed")
}

func TestRunCycle_Error(t *testing.T) {
	t.Parallel()

	h := handlers.NewMonitorHandler(&mockMonitor{cycleErr: errors.New("scrape failed")})

	_, api := humatest.New(t)
	handlers.RegisterMonitorRoutes(api, h)

	resp := api.Post("/api/v1/monitor/cycle")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "monitoring cycle failed")
}
