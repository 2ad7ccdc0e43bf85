package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/flowise"
)

// FlowiseInterface is the slice of the Flowise client the proxy needs.
type FlowiseInterface interface {
	TestConnection(ctx context.Context) flowise.ConnectionStatus
	ListChatflows(ctx context.Context) ([]flowise.Chatflow, error)
	GetChatflow(ctx context.Context, id string) (*flowise.Chatflow, error)
	CreateChatflow(ctx context.Context, flow *flowise.Chatflow) (*flowise.Chatflow, error)
	UpdateChatflow(ctx context.Context, id string, flow *flowise.Chatflow) (*flowise.Chatflow, error)
	DeleteChatflow(ctx context.Context, id string) error
	Predict(ctx context.Context, chatflowID, question, sessionID string) (*flowise.PredictionResponse, error)
	Stats(ctx context.Context, chatflowID string) (*flowise.ChatflowStats, error)
	CreateOptimizedCopy(ctx context.Context, chatflowID string, params flowise.OptimizationParams) (*flowise.Chatflow, error)
}

// FlowiseHandlers proxies the dashboard's workflow panel to the Flowise API.
// The browser never talks to Flowise directly, so the API key stays
// server-side.
type FlowiseHandlers struct {
	client       FlowiseInterface
	errorAdapter *errors.HTTPErrorAdapter
}

// NewFlowiseHandlers creates a Flowise proxy handlers instance.
func NewFlowiseHandlers(client FlowiseInterface) *FlowiseHandlers {
	return &FlowiseHandlers{
		client:       client,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// Register wires the proxy routes onto a mux.
func (h *FlowiseHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/flowise/connection", h.handleConnection)
	mux.HandleFunc("GET /api/flowise/chatflows", h.handleList)
	mux.HandleFunc("POST /api/flowise/chatflows", h.handleCreate)
	mux.HandleFunc("GET /api/flowise/chatflows/{id}", h.handleGet)
	mux.HandleFunc("PUT /api/flowise/chatflows/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/flowise/chatflows/{id}", h.handleDelete)
	mux.HandleFunc("POST /api/flowise/chatflows/{id}/predict", h.handlePredict)
	mux.HandleFunc("GET /api/flowise/chatflows/{id}/stats", h.handleStats)
	mux.HandleFunc("POST /api/flowise/chatflows/{id}/optimize", h.handleOptimize)
}

func (h *FlowiseHandlers) handleConnection(w http.ResponseWriter, r *http.Request) {
	status := h.client.TestConnection(r.Context())
	if err := writeJSONPretty(w, r, http.StatusOK, status); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.WrapError(err, errors.CategoryInternal, "failed to write connection response"))
	}
}

func (h *FlowiseHandlers) handleList(w http.ResponseWriter, r *http.Request) {
	flows, err := h.client.ListChatflows(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, flows)
}

func (h *FlowiseHandlers) handleGet(w http.ResponseWriter, r *http.Request) {
	flow, err := h.client.GetChatflow(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, flow)
}

func (h *FlowiseHandlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	var flow flowise.Chatflow
	if err := decodeJSON(r, &flow); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.ValidationError("invalid chatflow payload").WithCause(err))
		return
	}
	created, err := h.client.CreateChatflow(r.Context(), &flow)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, http.StatusCreated, created)
}

func (h *FlowiseHandlers) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var flow flowise.Chatflow
	if err := decodeJSON(r, &flow); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.ValidationError("invalid chatflow payload").WithCause(err))
		return
	}
	updated, err := h.client.UpdateChatflow(r.Context(), r.PathValue("id"), &flow)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, updated)
}

func (h *FlowiseHandlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.client.DeleteChatflow(r.Context(), r.PathValue("id")); err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FlowiseHandlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question  string `json:"question"`
		SessionID string `json:"session_id,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.ValidationError("invalid prediction payload").WithCause(err))
		return
	}
	if req.Question == "" {
		h.errorAdapter.WriteErrorResponse(w, errors.ValidationError("question is required"))
		return
	}

	resp, err := h.client.Predict(r.Context(), r.PathValue("id"), req.Question, req.SessionID)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, resp)
}

func (h *FlowiseHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.client.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, stats)
}

func (h *FlowiseHandlers) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var params flowise.OptimizationParams
	if err := decodeJSON(r, &params); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.ValidationError("invalid optimization payload").WithCause(err))
		return
	}

	copyFlow, err := h.client.CreateOptimizedCopy(r.Context(), r.PathValue("id"), params)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, http.StatusCreated, copyFlow)
}

func (h *FlowiseHandlers) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := writeJSONPretty(w, r, status, v); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.WrapError(err, errors.CategoryInternal, "failed to write response"))
	}
}
