package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/blobb999/selfsustain/internal/engine"
	"github.com/blobb999/selfsustain/internal/errors"
)

// SystemInterface is the slice of the backend client behind the static info
// panels (ethics, security, services).
type SystemInterface interface {
	EthicsPrinciples(ctx context.Context) (*engine.EthicsPrinciples, error)
	SecurityConfig(ctx context.Context) (*engine.SecurityConfig, error)
	UpdateSecurityConfig(ctx context.Context, doc map[string]any) (*engine.SecurityConfig, error)
	AnalyzeServices(ctx context.Context) (*engine.ServiceAnalysis, error)
}

// SystemHandlers proxies the info panels to the backend.
type SystemHandlers struct {
	client       SystemInterface
	errorAdapter *errors.HTTPErrorAdapter
}

// NewSystemHandlers creates a system proxy handlers instance.
func NewSystemHandlers(client SystemInterface) *SystemHandlers {
	return &SystemHandlers{
		client:       client,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// Register wires the proxy routes onto a mux.
func (h *SystemHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/ethics/principles", h.handleEthics)
	mux.HandleFunc("GET /api/config/security", h.handleSecurityGet)
	mux.HandleFunc("POST /api/config/security", h.handleSecurityUpdate)
	mux.HandleFunc("GET /api/services/analyze", h.handleServicesAnalyze)
}

func (h *SystemHandlers) handleEthics(w http.ResponseWriter, r *http.Request) {
	principles, err := h.client.EthicsPrinciples(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, principles)
}

func (h *SystemHandlers) handleSecurityGet(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.client.SecurityConfig(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, cfg.Raw)
}

func (h *SystemHandlers) handleSecurityUpdate(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := decodeJSON(r, &doc); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.ValidationError("invalid security configuration").WithCause(err))
		return
	}
	if len(doc) == 0 {
		h.errorAdapter.WriteErrorResponse(w, errors.ValidationError("security configuration must not be empty"))
		return
	}

	cfg, err := h.client.UpdateSecurityConfig(r.Context(), doc)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, cfg.Raw)
}

func (h *SystemHandlers) handleServicesAnalyze(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.client.AnalyzeServices(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}
	h.respond(w, r, analysis.Raw)
}

func (h *SystemHandlers) respond(w http.ResponseWriter, r *http.Request, v any) {
	if err := writeJSONPretty(w, r, http.StatusOK, v); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.WrapError(err, errors.CategoryInternal, "failed to write response"))
	}
}
