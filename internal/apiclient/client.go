// Package apiclient provides common HTTP plumbing for the external service
// clients (engine, flowise, llm). It consolidates request building, JSON
// decoding, and error classification so each client stays declarative.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/retry"
)

// Client provides common HTTP operations for service clients.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	category   errors.ErrorCategory
	policy     retry.Policy

	// Service-specific customization hooks
	authHeaderPrefix string // "Bearer " unless a service needs otherwise
	customHeaders    map[string]string
}

// New creates a Client with common service HTTP settings.
// The category tags every error this client produces, so callers can tell
// which collaborator failed without string matching.
func New(httpClient *http.Client, baseURL, apiKey string, category errors.ErrorCategory) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient:       httpClient,
		baseURL:          strings.TrimSuffix(baseURL, "/"),
		apiKey:           apiKey,
		category:         category,
		policy:           retry.DefaultPolicy(),
		authHeaderPrefix: "Bearer ",
		customHeaders:    make(map[string]string),
	}
}

// SetBaseURL re-points the client at runtime (the config panel allows this).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
}

// BaseURL returns the current base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SetAPIKey sets or clears the bearer credential.
func (c *Client) SetAPIKey(key string) { c.apiKey = key }

// SetRetryPolicy overrides the default backoff policy for transient failures.
func (c *Client) SetRetryPolicy(p retry.Policy) { c.policy = p }

// SetAuthHeaderPrefix customizes the authorization header format.
func (c *Client) SetAuthHeaderPrefix(prefix string) { c.authHeaderPrefix = prefix }

// SetCustomHeader sets service-specific headers.
func (c *Client) SetCustomHeader(key, value string) { c.customHeaders[key] = value }

// NewRequest creates an HTTP request against the configured base URL.
// Endpoint should be a relative path like "/api/v1/chatflows"; query strings
// embedded in the endpoint are preserved.
func (c *Client) NewRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	cleanEndpoint := strings.TrimPrefix(endpoint, "/")

	var rawQuery string
	if idx := strings.Index(cleanEndpoint, "?"); idx != -1 {
		rawQuery = cleanEndpoint[idx+1:]
		cleanEndpoint = cleanEndpoint[:idx]
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, c.category, errors.SeverityError, "failed to parse base URL").
			WithContext("base_url", c.baseURL)
	}

	basePath := strings.TrimSuffix(u.Path, "/")
	u.Path = path.Join(basePath, cleanEndpoint)
	if rawQuery != "" {
		u.RawQuery = rawQuery
	}

	var req *http.Request
	if body != nil {
		jsonBody, merr := json.Marshal(body)
		if merr != nil {
			return nil, errors.Wrap(merr, c.category, errors.SeverityError, "failed to marshal request body")
		}
		req, err = http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(jsonBody))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), http.NoBody)
	}
	if err != nil {
		return nil, errors.Wrap(err, c.category, errors.SeverityError, "failed to create request").
			WithContext("method", method).
			WithContext("url", u.String())
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", c.authHeaderPrefix+c.apiKey)
	}
	req.Header.Set("User-Agent", "SelfSustainPanel/1.0")

	for key, value := range c.customHeaders {
		req.Header.Set(key, value)
	}

	return req, nil
}

// DoRequest executes an HTTP request and decodes the JSON response into result.
// A nil result discards the body. Non-2xx responses become classified errors
// carrying a bounded excerpt of the response body.
func (c *Client) DoRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WrapRetryable(err, errors.CategoryNetwork, errors.SeverityWarning, "request failed").
			WithContext("method", req.Method).
			WithContext("url", req.URL.String())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")

		e := errors.New(c.category, errors.SeverityError, fmt.Sprintf("HTTP %d", resp.StatusCode)).
			WithContext("method", req.Method).
			WithContext("url", req.URL.String()).
			WithContext("status", resp.StatusCode)
		if bodyStr != "" {
			e = e.WithContext("body", bodyStr)
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			e.Retryable = true
		}
		return e
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return errors.Wrap(err, c.category, errors.SeverityError, "failed to decode response").
			WithContext("url", req.URL.String())
	}
	return nil
}

// Do issues a request with retries for transient failures, rebuilding the
// request for every attempt so bodies are re-sent intact.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, result any) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		req, err := c.NewRequest(ctx, method, endpoint, body)
		if err != nil {
			return err
		}

		lastErr = c.DoRequest(req, result)
		if lastErr == nil {
			return nil
		}
		if !errors.IsRetryable(lastErr) || attempt >= c.policy.MaxRetries {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), c.category, errors.SeverityWarning, "request canceled")
		case <-time.After(c.policy.Delay(attempt + 1)):
		}
	}
}

// Get is shorthand for Do with GET and no body.
func (c *Client) Get(ctx context.Context, endpoint string, result any) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, result)
}

// Post is shorthand for Do with POST.
func (c *Client) Post(ctx context.Context, endpoint string, body, result any) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, result)
}

// Put is shorthand for Do with PUT.
func (c *Client) Put(ctx context.Context, endpoint string, body, result any) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, result)
}

// Delete is shorthand for Do with DELETE and no body.
func (c *Client) Delete(ctx context.Context, endpoint string, result any) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, result)
}
