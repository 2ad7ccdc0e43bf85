package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/logfields"
	"github.com/blobb999/selfsustain/internal/server/responses"
)

// Repointable is a client whose endpoint can be changed at runtime.
type Repointable interface {
	SetBaseURL(url string)
	BaseURL() string
}

// ConfigHandlers exposes the runtime endpoint configuration: the dashboard's
// settings panel reads and re-points the three collaborator URLs without a
// restart. Changes are process-local; the YAML file is not rewritten.
type ConfigHandlers struct {
	mu           sync.Mutex
	engine       Repointable
	flowise      Repointable
	llm          Repointable
	errorAdapter *errors.HTTPErrorAdapter
}

// NewConfigHandlers creates a config handlers instance.
func NewConfigHandlers(engineClient, flowiseClient, llmClient Repointable) *ConfigHandlers {
	return &ConfigHandlers{
		engine:       engineClient,
		flowise:      flowiseClient,
		llm:          llmClient,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

type configUpdate struct {
	EngineURL  string `json:"engine_url,omitempty"`
	FlowiseURL string `json:"flowise_url,omitempty"`
	LLMURL     string `json:"llm_url,omitempty"`
}

// HandleConfig serves GET (current endpoints) and POST (update endpoints).
func (h *ConfigHandlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPost:
		h.handleUpdate(w, r)
	default:
		err := errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_methods", "GET, POST")
		h.errorAdapter.WriteErrorResponse(w, err)
	}
}

func (h *ConfigHandlers) handleGet(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	summary := responses.ServiceSummary{
		EngineURL:  h.engine.BaseURL(),
		FlowiseURL: h.flowise.BaseURL(),
		LLMURL:     h.llm.BaseURL(),
	}
	h.mu.Unlock()

	if err := writeJSONPretty(w, r, http.StatusOK, &responses.ConfigResponse{
		Status:    "ok",
		Services:  summary,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.WrapError(err, errors.CategoryInternal, "failed to write config response"))
	}
}

func (h *ConfigHandlers) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var update configUpdate
	if err := decodeJSON(r, &update); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.ValidationError("invalid config payload").WithCause(err))
		return
	}

	for name, u := range map[string]string{
		"engine_url":  update.EngineURL,
		"flowise_url": update.FlowiseURL,
		"llm_url":     update.LLMURL,
	} {
		if u == "" {
			continue
		}
		if err := validateEndpointURL(u); err != nil {
			h.errorAdapter.WriteErrorResponse(w, errors.ValidationFailed(name, err.Error()))
			return
		}
	}

	h.mu.Lock()
	if update.EngineURL != "" {
		h.engine.SetBaseURL(update.EngineURL)
		slog.Info("engine endpoint updated", logfields.Endpoint(update.EngineURL))
	}
	if update.FlowiseURL != "" {
		h.flowise.SetBaseURL(update.FlowiseURL)
		slog.Info("flowise endpoint updated", logfields.Endpoint(update.FlowiseURL))
	}
	if update.LLMURL != "" {
		h.llm.SetBaseURL(update.LLMURL)
		slog.Info("llm endpoint updated", logfields.Endpoint(update.LLMURL))
	}
	h.mu.Unlock()

	h.handleGet(w, r)
}

func validateEndpointURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.ValidationError("endpoint URL must be http or https")
	}
	if u.Host == "" {
		return errors.ValidationError("endpoint URL must be absolute")
	}
	return nil
}
