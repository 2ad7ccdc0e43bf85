package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blobb999/selfsustain/internal/server/responses"
)

type stubRepointable struct {
	base string
}

func (s *stubRepointable) SetBaseURL(url string) { s.base = url }
func (s *stubRepointable) BaseURL() string       { return s.base }

func TestHandleConfig_Get(t *testing.T) {
	h := NewConfigHandlers(
		&stubRepointable{base: "http://engine:7861"},
		&stubRepointable{base: "http://flowise:3000"},
		&stubRepointable{base: "http://ollama:11434"},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	rec := httptest.NewRecorder()
	h.HandleConfig(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp responses.ConfigResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Services.EngineURL != "http://engine:7861" {
		t.Fatalf("unexpected engine url: %q", resp.Services.EngineURL)
	}
	if resp.Services.LLMURL != "http://ollama:11434" {
		t.Fatalf("unexpected llm url: %q", resp.Services.LLMURL)
	}
}

func TestHandleConfig_UpdateRepoints(t *testing.T) {
	engine := &stubRepointable{base: "http://engine:7861"}
	flowiseClient := &stubRepointable{base: "http://flowise:3000"}
	llmClient := &stubRepointable{base: "http://ollama:11434"}
	h := NewConfigHandlers(engine, flowiseClient, llmClient)

	req := httptest.NewRequest(http.MethodPost, "/api/config",
		strings.NewReader(`{"llm_url":"http://localhost:11434"}`))
	rec := httptest.NewRecorder()
	h.HandleConfig(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if llmClient.base != "http://localhost:11434" {
		t.Fatalf("llm endpoint not updated: %q", llmClient.base)
	}
	// Untouched fields keep their endpoints.
	if engine.base != "http://engine:7861" || flowiseClient.base != "http://flowise:3000" {
		t.Fatalf("unrelated endpoints changed: engine=%q flowise=%q", engine.base, flowiseClient.base)
	}

	var resp responses.ConfigResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Services.LLMURL != "http://localhost:11434" {
		t.Fatalf("response does not reflect update: %q", resp.Services.LLMURL)
	}
}

func TestHandleConfig_RejectsInvalidURL(t *testing.T) {
	llmClient := &stubRepointable{base: "http://ollama:11434"}
	h := NewConfigHandlers(&stubRepointable{}, &stubRepointable{}, llmClient)

	for _, bad := range []string{"ftp://nope", "not-a-url", "//missing-scheme"} {
		body, _ := json.Marshal(map[string]string{"llm_url": bad})
		req := httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(string(body)))
		rec := httptest.NewRecorder()
		h.HandleConfig(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", bad, rec.Code)
		}
		if llmClient.base != "http://ollama:11434" {
			t.Fatalf("%q: endpoint changed despite rejection: %q", bad, llmClient.base)
		}
	}
}

func TestHandleConfig_MethodNotAllowed(t *testing.T) {
	h := NewConfigHandlers(&stubRepointable{}, &stubRepointable{}, &stubRepointable{})

	req := httptest.NewRequest(http.MethodDelete, "/api/config", nil)
	rec := httptest.NewRecorder()
	h.HandleConfig(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
