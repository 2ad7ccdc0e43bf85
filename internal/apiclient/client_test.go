package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobb999/selfsustain/internal/config"
	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/retry"
)

func TestNewRequestBuildsURLAndHeaders(t *testing.T) {
	c := New(nil, "http://flowise:3000/", "secret", errors.CategoryFlowise)

	req, err := c.NewRequest(t.Context(), http.MethodGet, "/api/v1/chatflows?limit=5", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://flowise:3000/api/v1/chatflows", req.URL.Scheme+"://"+req.URL.Host+req.URL.Path)
	assert.Equal(t, "limit=5", req.URL.RawQuery)
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
	assert.Equal(t, "SelfSustainPanel/1.0", req.Header.Get("User-Agent"))
}

func TestNewRequestPreservesBasePath(t *testing.T) {
	c := New(nil, "http://proxy:8000/flowise", "", errors.CategoryFlowise)

	req, err := c.NewRequest(t.Context(), http.MethodGet, "api/v1/chatflows", nil)
	require.NoError(t, err)
	assert.Equal(t, "/flowise/api/v1/chatflows", req.URL.Path)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestDoRequestDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "hello", in["question"])
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "world"})
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "", errors.CategoryFlowise)
	var out struct {
		Text string `json:"text"`
	}
	err := c.Post(t.Context(), "/predict", map[string]string{"question": "hello"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "world", out.Text)
}

func TestDoRequestClassifiesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chatflow not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "", errors.CategoryFlowise)
	err := c.Get(t.Context(), "/api/v1/chatflows/missing", nil)
	require.Error(t, err)

	assert.True(t, errors.IsCategory(err, errors.CategoryFlowise))
	assert.False(t, errors.IsRetryable(err))

	pe, ok := err.(*errors.PanelError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, pe.Context["status"])
	assert.Contains(t, pe.Context["body"], "chatflow not found")
}

func TestDoRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "", errors.CategoryEngine)
	c.SetRetryPolicy(retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3))

	var out map[string]string
	err := c.Get(t.Context(), "/status", &out)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "ok", out["status"])
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "busy", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "", errors.CategoryEngine)
	c.SetRetryPolicy(retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2))

	err := c.Get(t.Context(), "/status", nil)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load()) // initial attempt + 2 retries
	assert.True(t, errors.IsRetryable(err))
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "", errors.CategoryLLM)
	err := c.Get(t.Context(), "/chat", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTransportErrorIsRetryableNetwork(t *testing.T) {
	c := New(&http.Client{Timeout: 100 * time.Millisecond}, "http://127.0.0.1:1", "", errors.CategoryEngine)
	c.SetRetryPolicy(retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 0))

	err := c.Get(t.Context(), "/status", nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
	assert.True(t, errors.IsRetryable(err))
}

func TestSetBaseURLTrimsSlash(t *testing.T) {
	c := New(nil, "http://a:1", "", errors.CategoryEngine)
	c.SetBaseURL("http://b:2/")
	assert.Equal(t, "http://b:2", c.BaseURL())
}
