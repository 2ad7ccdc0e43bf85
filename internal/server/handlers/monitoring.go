package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/server/responses"
	"github.com/blobb999/selfsustain/internal/version"
)

// MonitorInterface is the slice of the monitor the handlers need.
type MonitorInterface interface {
	Ready() bool
}

// MonitoringHandlers contains health and readiness handlers for the
// admin server.
type MonitoringHandlers struct {
	monitor      MonitorInterface
	startTime    time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a monitoring handlers instance.
func NewMonitoringHandlers(m MonitorInterface, startTime time.Time) *MonitoringHandlers {
	return &MonitoringHandlers{
		monitor:      m,
		startTime:    startTime,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleHealthCheck handles the health check endpoint. The panel itself is
// healthy as soon as it serves requests; collaborator state lives in /api/status.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "GET")
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}

	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(h.startTime).Seconds(),
	}

	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write health response")
		h.errorAdapter.WriteErrorResponse(w, internalErr)
	}
}

// HandleReadiness reports ready only once the first probe cycle has
// completed, so load balancers never route to a panel with empty tiles.
func (h *MonitoringHandlers) HandleReadiness(w http.ResponseWriter, _ *http.Request) {
	if h.monitor != nil && h.monitor.Ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready: first probe cycle pending"))
}
