package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/flowise"
)

type stubFlowise struct {
	flows   []flowise.Chatflow
	deleted []string
	err     error
}

func (s *stubFlowise) TestConnection(context.Context) flowise.ConnectionStatus {
	return flowise.ConnectionStatus{Online: true, StatusCode: 200, Message: "ok"}
}

func (s *stubFlowise) ListChatflows(context.Context) ([]flowise.Chatflow, error) {
	return s.flows, s.err
}

func (s *stubFlowise) GetChatflow(_ context.Context, id string) (*flowise.Chatflow, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.flows {
		if s.flows[i].ID == id {
			return &s.flows[i], nil
		}
	}
	return nil, errors.NotFound("chatflow", id)
}

func (s *stubFlowise) CreateChatflow(_ context.Context, flow *flowise.Chatflow) (*flowise.Chatflow, error) {
	if s.err != nil {
		return nil, s.err
	}
	created := *flow
	created.ID = "created-1"
	s.flows = append(s.flows, created)
	return &created, nil
}

func (s *stubFlowise) UpdateChatflow(_ context.Context, id string, flow *flowise.Chatflow) (*flowise.Chatflow, error) {
	if s.err != nil {
		return nil, s.err
	}
	updated := *flow
	updated.ID = id
	return &updated, nil
}

func (s *stubFlowise) DeleteChatflow(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return s.err
}

func (s *stubFlowise) Predict(_ context.Context, chatflowID, question, sessionID string) (*flowise.PredictionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &flowise.PredictionResponse{Text: "answer to " + question, SessionID: sessionID}, nil
}

func (s *stubFlowise) Stats(_ context.Context, chatflowID string) (*flowise.ChatflowStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &flowise.ChatflowStats{ChatflowID: chatflowID, TotalMessages: 3}, nil
}

func (s *stubFlowise) CreateOptimizedCopy(_ context.Context, chatflowID string, params flowise.OptimizationParams) (*flowise.Chatflow, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &flowise.Chatflow{ID: chatflowID + "-optimized", Name: "optimized"}, nil
}

func newFlowiseMux(client *stubFlowise) *http.ServeMux {
	mux := http.NewServeMux()
	NewFlowiseHandlers(client).Register(mux)
	return mux
}

func TestFlowiseProxy_List(t *testing.T) {
	mux := newFlowiseMux(&stubFlowise{flows: []flowise.Chatflow{
		{ID: "a", Name: "Flow A", Deployed: true},
		{ID: "b", Name: "Flow B"},
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/flowise/chatflows", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var flows []flowise.Chatflow
	if err := json.Unmarshal(rec.Body.Bytes(), &flows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(flows) != 2 || flows[0].ID != "a" {
		t.Fatalf("unexpected flows: %+v", flows)
	}
}

func TestFlowiseProxy_GetByID(t *testing.T) {
	mux := newFlowiseMux(&stubFlowise{flows: []flowise.Chatflow{{ID: "a", Name: "Flow A"}}})

	req := httptest.NewRequest(http.MethodGet, "/api/flowise/chatflows/a", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var flow flowise.Chatflow
	if err := json.Unmarshal(rec.Body.Bytes(), &flow); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if flow.Name != "Flow A" {
		t.Fatalf("unexpected flow: %+v", flow)
	}
}

func TestFlowiseProxy_GetMissing(t *testing.T) {
	mux := newFlowiseMux(&stubFlowise{})

	req := httptest.NewRequest(http.MethodGet, "/api/flowise/chatflows/nope", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown chatflow, got %d", rec.Code)
	}
}

func TestFlowiseProxy_Create(t *testing.T) {
	mux := newFlowiseMux(&stubFlowise{})

	req := httptest.NewRequest(http.MethodPost, "/api/flowise/chatflows",
		strings.NewReader(`{"name":"New Flow"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var flow flowise.Chatflow
	if err := json.Unmarshal(rec.Body.Bytes(), &flow); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if flow.ID != "created-1" {
		t.Fatalf("unexpected created flow: %+v", flow)
	}
}

func TestFlowiseProxy_Delete(t *testing.T) {
	client := &stubFlowise{}
	mux := newFlowiseMux(client)

	req := httptest.NewRequest(http.MethodDelete, "/api/flowise/chatflows/a", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(client.deleted) != 1 || client.deleted[0] != "a" {
		t.Fatalf("delete not forwarded: %+v", client.deleted)
	}
}

func TestFlowiseProxy_Predict(t *testing.T) {
	mux := newFlowiseMux(&stubFlowise{})

	req := httptest.NewRequest(http.MethodPost, "/api/flowise/chatflows/a/predict",
		strings.NewReader(`{"question":"ping"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp flowise.PredictionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Text != "answer to ping" {
		t.Fatalf("unexpected prediction: %+v", resp)
	}
}

func TestFlowiseProxy_PredictRequiresQuestion(t *testing.T) {
	mux := newFlowiseMux(&stubFlowise{})

	req := httptest.NewRequest(http.MethodPost, "/api/flowise/chatflows/a/predict",
		strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFlowiseProxy_Optimize(t *testing.T) {
	mux := newFlowiseMux(&stubFlowise{})

	req := httptest.NewRequest(http.MethodPost, "/api/flowise/chatflows/a/optimize",
		strings.NewReader(`{"temperature":0.7,"maxTokens":1000}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var flow flowise.Chatflow
	if err := json.Unmarshal(rec.Body.Bytes(), &flow); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if flow.ID != "a-optimized" {
		t.Fatalf("unexpected optimized copy: %+v", flow)
	}
}

func TestFlowiseProxy_Connection(t *testing.T) {
	mux := newFlowiseMux(&stubFlowise{})

	req := httptest.NewRequest(http.MethodGet, "/api/flowise/connection", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status flowise.ConnectionStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !status.Online {
		t.Fatalf("unexpected status: %+v", status)
	}
}
