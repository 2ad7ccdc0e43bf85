// Package llm implements the client for the local language model endpoint.
// It prefers the Ollama API and falls back to OpenAI-compatible routes, and
// it is docker-network aware: when the configured base URL is unreachable it
// walks a fixed list of compose service names before giving up.
package llm

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/blobb999/selfsustain/internal/apiclient"
	"github.com/blobb999/selfsustain/internal/config"
	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/logfields"
	"github.com/blobb999/selfsustain/internal/retry"
)

const modelCacheTTL = 5 * time.Minute

// fallbackModels is the preference order used when the requested model is
// not installed: small, fast models first.
var fallbackModels = []string{
	"phi3:mini",
	"tinyllama",
	"tinyllama:latest",
	"phi3:3.8b",
	"llama3.2:1b",
	"llama3.2:3b",
	"gemma2:2b",
	"qwen2:0.5b",
	"qwen2:1.5b",
}

// Client talks to an Ollama or OpenAI-compatible endpoint.
type Client struct {
	httpClient *http.Client
	apiKey     string

	mu          sync.Mutex
	policy      retry.Policy
	bases       []string
	active      string // last base URL that answered
	modelsCache []string
	cacheTime   time.Time
}

// NewClient creates an LLM client from an endpoint configuration.
func NewClient(ep config.ServiceEndpoint) *Client {
	timeout := ep.Timeout.Std()
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     ep.APIKey(),
		policy:     retry.DefaultPolicy(),
		bases:      candidateBaseURLs(ep.BaseURL),
	}
}

// SetRetryPolicy applies the configured backoff policy for transient failures.
func (c *Client) SetRetryPolicy(p retry.Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = p
}

// candidateBaseURLs builds the ordered, deduplicated probe list: the
// configured URL first, then compose service names, then local fallbacks.
func candidateBaseURLs(primary string) []string {
	candidates := []string{
		primary,
		"http://llm_service:11434",
		"http://ki_self_sustain_llm:11434",
		"http://ollama:11434",
		"http://localhost:11434",
		"http://127.0.0.1:11434",
		"http://host.docker.internal:11434",
	}

	seen := make(map[string]struct{}, len(candidates))
	result := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSuffix(strings.TrimSpace(c), "/")
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		result = append(result, c)
	}
	return result
}

// SetBaseURL re-points the client and resets candidate order and caches.
func (c *Client) SetBaseURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bases = candidateBaseURLs(url)
	c.active = ""
	c.modelsCache = nil
}

// BaseURL returns the active base URL, or the primary candidate before any
// call has succeeded.
func (c *Client) BaseURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != "" {
		return c.active
	}
	if len(c.bases) > 0 {
		return c.bases[0]
	}
	return ""
}

// SetAPIKey sets or clears the bearer credential.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
}

func (c *Client) api(base string) *apiclient.Client {
	c.mu.Lock()
	key := c.apiKey
	policy := c.policy
	c.mu.Unlock()
	a := apiclient.New(c.httpClient, base, key, errors.CategoryLLM)
	a.SetRetryPolicy(policy)
	return a
}

// isOllama reports whether an Ollama API answers under base.
func (c *Client) isOllama(ctx context.Context, base string) bool {
	a := c.api(base)
	if err := a.Get(ctx, "/api/version", nil); err == nil {
		return true
	}
	if err := a.Get(ctx, "/api/tags", nil); err == nil {
		return true
	}
	return false
}

// Ping reports whether any candidate endpoint is reachable and remembers it.
func (c *Client) Ping(ctx context.Context) error {
	c.mu.Lock()
	bases := append([]string(nil), c.bases...)
	c.mu.Unlock()

	var lastErr error
	for _, base := range bases {
		a := c.api(base)
		if err := a.Get(ctx, "/api/version", nil); err == nil {
			c.setActive(base)
			return nil
		} else {
			lastErr = err
		}
		// OpenAI-compatible endpoints have no /api/version
		if err := a.Get(ctx, "/v1/models", nil); err == nil {
			c.setActive(base)
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = errors.LLMError("no candidate base URLs configured")
	}
	return errors.WrapRetryable(lastErr, errors.CategoryLLM, errors.SeverityWarning, "no LLM endpoint reachable")
}

func (c *Client) setActive(base string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != base {
		slog.Debug("LLM endpoint selected", logfields.Endpoint(base))
	}
	c.active = base
}

// orderedBases returns the candidates with the active one first.
func (c *Client) orderedBases() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == "" {
		return append([]string(nil), c.bases...)
	}
	out := []string{c.active}
	for _, b := range c.bases {
		if b != c.active {
			out = append(out, b)
		}
	}
	return out
}

// Models returns the available model names, cached for five minutes.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	if c.modelsCache != nil && time.Since(c.cacheTime) < modelCacheTTL {
		cached := append([]string(nil), c.modelsCache...)
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	var lastErr error
	for _, base := range c.orderedBases() {
		a := c.api(base)

		var tags ollamaTagsResponse
		if err := a.Get(ctx, "/api/tags", &tags); err == nil {
			names := make([]string, 0, len(tags.Models))
			for _, m := range tags.Models {
				if m.Name != "" {
					names = append(names, m.Name)
				}
			}
			c.storeModels(base, names)
			return names, nil
		} else {
			lastErr = err
		}

		var openai openaiModelsResponse
		if err := a.Get(ctx, "/v1/models", &openai); err == nil {
			names := make([]string, 0, len(openai.Data))
			for _, m := range openai.Data {
				if m.ID != "" {
					names = append(names, m.ID)
				}
			}
			c.storeModels(base, names)
			return names, nil
		} else {
			lastErr = err
		}
	}

	return nil, errors.Wrap(lastErr, errors.CategoryLLM, errors.SeverityError, "failed to list models")
}

func (c *Client) storeModels(base string, names []string) {
	c.mu.Lock()
	c.active = base
	c.modelsCache = append([]string(nil), names...)
	c.cacheTime = time.Now()
	c.mu.Unlock()
}

// ResolveModel picks the best available model for a preference: exact match
// first, then the small-model fallback order, then whatever is installed.
func (c *Client) ResolveModel(ctx context.Context, preferred string) string {
	available, err := c.Models(ctx)
	if err != nil || len(available) == 0 {
		slog.Warn("no models listed, using preferred model anyway", logfields.Model(preferred))
		return preferred
	}

	installed := make(map[string]struct{}, len(available))
	for _, m := range available {
		installed[m] = struct{}{}
	}

	if _, ok := installed[preferred]; ok {
		return preferred
	}
	for _, fallback := range fallbackModels {
		if _, ok := installed[fallback]; ok {
			slog.Info("using fallback model", logfields.Model(fallback), slog.String("preferred", preferred))
			return fallback
		}
	}
	slog.Info("using first available model", logfields.Model(available[0]), slog.String("preferred", preferred))
	return available[0]
}

// ChatCompletion runs one completion, preferring the Ollama dialect and
// falling back to OpenAI /v1/chat/completions, normalizing the result.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := c.ResolveModel(ctx, req.Model)

	var lastErr error
	for _, base := range c.orderedBases() {
		a := c.api(base)

		if c.isOllama(ctx, base) {
			oreq := ollamaChatRequest{
				Model:    model,
				Messages: req.Messages,
				Stream:   false,
				Options: ollamaChatOptions{
					Temperature: req.Temperature,
					NumPredict:  req.MaxTokens,
				},
			}
			var oresp ollamaChatResponse
			if err := a.Post(ctx, "/api/chat", oreq, &oresp); err == nil {
				c.setActive(base)
				return &ChatResponse{
					Model:    oresp.Model,
					Choices:  []ChatChoice{{Message: oresp.Message}},
					Provider: "ollama",
				}, nil
			} else {
				lastErr = err
			}
		}

		openaiReq := ChatRequest{
			Model:       model,
			Messages:    req.Messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		}
		var openaiResp struct {
			Model   string       `json:"model"`
			Choices []ChatChoice `json:"choices"`
		}
		if err := a.Post(ctx, "/v1/chat/completions", openaiReq, &openaiResp); err == nil {
			c.setActive(base)
			return &ChatResponse{
				Model:    openaiResp.Model,
				Choices:  openaiResp.Choices,
				Provider: "openai",
			}, nil
		} else {
			lastErr = err
		}
	}

	return nil, errors.Wrap(lastErr, errors.CategoryLLM, errors.SeverityError, "chat completion failed on all endpoints").
		WithContext("model", model)
}

// Ask is a single-prompt convenience over ChatCompletion.
func (c *Client) Ask(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.ChatCompletion(ctx, ChatRequest{
		Model:    model,
		Messages: []ChatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
