package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/blobb999/selfsustain/internal/chat"
	"github.com/blobb999/selfsustain/internal/config"
	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/eventstore"
	"github.com/blobb999/selfsustain/internal/flowise"
	"github.com/blobb999/selfsustain/internal/llm"
	"github.com/blobb999/selfsustain/internal/logfields"
	"github.com/blobb999/selfsustain/internal/metrics"
	"github.com/blobb999/selfsustain/internal/server/responses"
)

// ChatCompleter is the slice of the LLM client the chat handler needs.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// Predictor is the slice of the Flowise client the chat handler needs.
type Predictor interface {
	Predict(ctx context.Context, chatflowID, question, sessionID string) (*flowise.PredictionResponse, error)
}

// ChatHandlers implements the dashboard chat panel endpoints. Messages go to
// the LLM by default; when the request names a chatflow, the round trip is
// routed through Flowise instead.
type ChatHandlers struct {
	store        *chat.Store
	llm          ChatCompleter
	flowise      Predictor
	cfg          config.ChatConfig
	recorder     metrics.Recorder
	events       eventstore.Store
	errorAdapter *errors.HTTPErrorAdapter
}

// NewChatHandlers creates a chat handlers instance. events may be nil.
func NewChatHandlers(store *chat.Store, llmClient ChatCompleter, flowiseClient Predictor, cfg config.ChatConfig, recorder metrics.Recorder, events eventstore.Store) *ChatHandlers {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &ChatHandlers{
		store:        store,
		llm:          llmClient,
		flowise:      flowiseClient,
		cfg:          cfg,
		recorder:     recorder,
		events:       events,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

type chatRequest struct {
	SessionID  string `json:"session_id,omitempty"`
	Message    string `json:"message"`
	ChatflowID string `json:"chatflow_id,omitempty"`
	Model      string `json:"model,omitempty"`
}

// HandleChat serves POST (send a message) and GET (session history).
func (h *ChatHandlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSend(w, r)
	case http.MethodGet:
		h.handleHistory(w, r)
	default:
		err := errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_methods", "GET, POST")
		h.errorAdapter.WriteErrorResponse(w, err)
	}
}

func (h *ChatHandlers) handleSend(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.ValidationError("invalid chat request").WithCause(err))
		return
	}
	if req.Message == "" {
		h.errorAdapter.WriteErrorResponse(w, errors.ValidationError("message is required"))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = h.store.NewSession()
	}
	h.store.Append(sessionID, chat.Message{Role: chat.RoleUser, Content: req.Message})

	target, content, err := h.roundTrip(r.Context(), sessionID, req)

	reply := chat.Message{Role: chat.RoleAssistant, Content: content}
	if err != nil {
		// A failed round trip still becomes a message so the dashboard
		// renders the error inline instead of losing the turn.
		reply.Content = err.Error()
		reply.Err = true
		slog.Warn("chat round trip failed",
			logfields.Session(sessionID),
			logfields.Error(err))
	} else if html, renderErr := chat.RenderMarkdown(content); renderErr == nil {
		reply.HTML = html
	}
	reply = h.store.Append(sessionID, reply)

	if err := writeJSON(w, http.StatusOK, &responses.ChatResponse{
		SessionID: sessionID,
		Reply:     reply,
		Target:    target,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.WrapError(err, errors.CategoryInternal, "failed to write chat response"))
	}
}

// roundTrip routes one message and records duration metrics and the
// audit event.
func (h *ChatHandlers) roundTrip(ctx context.Context, sessionID string, req chatRequest) (target, content string, err error) {
	start := time.Now()

	if req.ChatflowID != "" {
		target = req.ChatflowID
		var resp *flowise.PredictionResponse
		resp, err = h.flowise.Predict(ctx, req.ChatflowID, req.Message, sessionID)
		if err == nil {
			content = resp.Text
		}
	} else {
		model := req.Model
		if model == "" {
			model = h.cfg.DefaultModel
		}
		target = model
		var resp *llm.ChatResponse
		resp, err = h.llm.ChatCompletion(ctx, llm.ChatRequest{
			Model:       model,
			Messages:    []llm.ChatMessage{{Role: "user", Content: req.Message}},
			Temperature: h.cfg.Temperature,
			MaxTokens:   h.cfg.MaxTokens,
		})
		if err == nil {
			content = resp.Text()
		}
	}

	duration := time.Since(start)
	h.recorder.ObserveChatDuration(target, duration, err != nil)

	if h.events != nil {
		if event, buildErr := eventstore.NewChatExchanged(sessionID, target, duration, err != nil); buildErr == nil {
			if recordErr := eventstore.Record(ctx, h.events, event); recordErr != nil {
				slog.Warn("failed to record chat exchange", logfields.Session(sessionID), logfields.Error(recordErr))
			}
		}
	}
	return target, content, err
}

func (h *ChatHandlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		h.errorAdapter.WriteErrorResponse(w, errors.ValidationError("session_id query parameter is required"))
		return
	}

	if err := writeJSONPretty(w, r, http.StatusOK, &responses.ChatHistoryResponse{
		SessionID: sessionID,
		Messages:  h.store.History(sessionID),
	}); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.WrapError(err, errors.CategoryInternal, "failed to write history response"))
	}
}

// HandleNewSession creates a fresh session.
func (h *ChatHandlers) HandleNewSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		err := errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "POST")
		h.errorAdapter.WriteErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, &responses.SessionResponse{SessionID: h.store.NewSession()}); err != nil {
		h.errorAdapter.WriteErrorResponse(w, errors.WrapError(err, errors.CategoryInternal, "failed to write session response"))
	}
}
