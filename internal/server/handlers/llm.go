package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/blobb999/selfsustain/internal/errors"
)

// ModelLister is the slice of the LLM client the model endpoints need.
type ModelLister interface {
	Models(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
	BaseURL() string
}

// LLMHandlers serves the model dropdown and connectivity check for the
// chat panel.
type LLMHandlers struct {
	client       ModelLister
	errorAdapter *errors.HTTPErrorAdapter
}

// NewLLMHandlers creates an LLM handlers instance.
func NewLLMHandlers(client ModelLister) *LLMHandlers {
	return &LLMHandlers{
		client:       client,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// Register wires the LLM routes onto a mux.
func (h *LLMHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/llm/models", h.handleModels)
	mux.HandleFunc("GET /api/llm/connection", h.handleConnection)
}

func (h *LLMHandlers) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.client.Models(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	if err := writeJSONPretty(w, r, http.StatusOK, map[string]any{
		"models":    models,
		"timestamp": time.Now().UTC(),
	}); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.WrapError(err, errors.CategoryInternal, "failed to write models response"))
	}
}

func (h *LLMHandlers) handleConnection(w http.ResponseWriter, r *http.Request) {
	online := h.client.Ping(r.Context()) == nil
	if err := writeJSONPretty(w, r, http.StatusOK, map[string]any{
		"online":   online,
		"endpoint": h.client.BaseURL(),
	}); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.WrapError(err, errors.CategoryInternal, "failed to write connection response"))
	}
}
