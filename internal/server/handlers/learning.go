package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/blobb999/selfsustain/internal/engine"
	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/eventstore"
	"github.com/blobb999/selfsustain/internal/logfields"
	"github.com/blobb999/selfsustain/internal/server/responses"
)

// EngineInterface is the slice of the learning backend client the proxy needs.
type EngineInterface interface {
	LearningStatus(ctx context.Context) (*engine.LearningStatus, error)
	PerformanceMetrics(ctx context.Context) (*engine.PerformanceMetrics, error)
	VersionHistory(ctx context.Context) (*engine.VersionHistory, error)
	TriggerImprovement(ctx context.Context, kind engine.ImprovementKind, payload any) (*engine.ImprovementResult, error)
}

// LearningHandlers proxies the dashboard's learning panel to the backend.
type LearningHandlers struct {
	client       EngineInterface
	events       eventstore.Store
	errorAdapter *errors.HTTPErrorAdapter
}

// NewLearningHandlers creates a learning proxy handlers instance. events may
// be nil.
func NewLearningHandlers(client EngineInterface, events eventstore.Store) *LearningHandlers {
	return &LearningHandlers{
		client:       client,
		events:       events,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// Register wires the proxy routes onto a mux.
func (h *LearningHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/learning/status", h.handleStatus)
	mux.HandleFunc("GET /api/learning/performance-metrics", h.handleMetrics)
	mux.HandleFunc("GET /api/learning/version-history", h.handleHistory)
	mux.HandleFunc("POST /api/learning/autonomous-improvement", h.handleAutonomous)
	mux.HandleFunc("POST /api/learning/manual-improvement", h.handleManual)
}

func (h *LearningHandlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.client.LearningStatus(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, status)
}

func (h *LearningHandlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.client.PerformanceMetrics(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, metrics)
}

func (h *LearningHandlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.client.VersionHistory(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, history)
}

func (h *LearningHandlers) handleAutonomous(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, engine.ImprovementAutonomous, nil)
}

func (h *LearningHandlers) handleManual(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.ValidationError("invalid improvement payload").WithCause(err))
		return
	}
	h.trigger(w, r, engine.ImprovementManual, payload)
}

func (h *LearningHandlers) trigger(w http.ResponseWriter, r *http.Request, kind engine.ImprovementKind, payload any) {
	if _, err := h.client.TriggerImprovement(r.Context(), kind, payload); err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}

	if h.events != nil {
		if event, buildErr := eventstore.NewImprovementTriggered(string(kind)); buildErr == nil {
			if recordErr := eventstore.Record(r.Context(), h.events, event); recordErr != nil {
				slog.Warn("failed to record improvement trigger", logfields.Error(recordErr))
			}
		}
	}

	h.respond(w, r, &responses.TriggerResponse{
		Status:    "accepted",
		Kind:      string(kind),
		Timestamp: time.Now().UTC(),
	})
}

func (h *LearningHandlers) respond(w http.ResponseWriter, r *http.Request, v any) {
	if err := writeJSONPretty(w, r, http.StatusOK, v); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.WrapError(err, errors.CategoryInternal, "failed to write response"))
	}
}
