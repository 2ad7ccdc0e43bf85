package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/eventstore"
	"github.com/blobb999/selfsustain/internal/monitor"
	"github.com/blobb999/selfsustain/internal/server/responses"
)

// SnapshotProvider is the slice of the monitor the status handler needs.
type SnapshotProvider interface {
	Snapshot() monitor.Snapshot
}

// UptimeProvider folds the event log into per-service availability.
type UptimeProvider interface {
	Summaries() []*eventstore.UptimeSummary
}

// StatusHandlers serves the aggregated snapshot the dashboard polls.
type StatusHandlers struct {
	monitor      SnapshotProvider
	uptime       UptimeProvider
	errorAdapter *errors.HTTPErrorAdapter
}

// NewStatusHandlers creates a status handlers instance. uptime may be nil
// when the event store is disabled.
func NewStatusHandlers(m SnapshotProvider, uptime UptimeProvider) *StatusHandlers {
	return &StatusHandlers{
		monitor:      m,
		uptime:       uptime,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleStatus returns the current service states, sample windows, and
// uptime summaries as one JSON document.
func (h *StatusHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "GET")
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}

	snap := h.monitor.Snapshot()
	resp := &responses.StatusResponse{
		Status:    "ok",
		Services:  snap.Services,
		Samples:   snap.Samples,
		Ready:     snap.Ready,
		Timestamp: time.Now().UTC(),
	}
	if h.uptime != nil {
		resp.Uptime = h.uptime.Summaries()
	}

	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write status response")
		h.errorAdapter.WriteErrorResponse(w, internalErr)
	}
}
