// Package engine implements the client for the self-learning backend. The
// backend's improvement logic is opaque to the panel; this client only
// surfaces its documented learning endpoints.
package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/blobb999/selfsustain/internal/apiclient"
	"github.com/blobb999/selfsustain/internal/config"
	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/retry"
)

// ConnectionStatus reports the outcome of a reachability probe.
type ConnectionStatus struct {
	Online     bool   `json:"online"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
}

// Client talks to the learning backend's REST API.
type Client struct {
	api *apiclient.Client
}

// NewClient creates an engine client from an endpoint configuration.
func NewClient(ep config.ServiceEndpoint) *Client {
	httpClient := &http.Client{Timeout: ep.Timeout.Std()}
	if ep.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}
	return &Client{
		api: apiclient.New(httpClient, ep.BaseURL, ep.APIKey(), errors.CategoryEngine),
	}
}

// SetBaseURL re-points the client at runtime.
func (c *Client) SetBaseURL(url string) { c.api.SetBaseURL(url) }

// BaseURL returns the current endpoint.
func (c *Client) BaseURL() string { return c.api.BaseURL() }

// SetRetryPolicy applies the configured backoff policy for transient failures.
func (c *Client) SetRetryPolicy(p retry.Policy) { c.api.SetRetryPolicy(p) }

// Health probes the backend: /api/health first, learning status as fallback
// for older builds that never exposed a health route.
func (c *Client) Health(ctx context.Context) error {
	if err := c.api.Get(ctx, "/api/health", nil); err == nil {
		return nil
	}
	return c.api.Get(ctx, "/api/learning/status", nil)
}

// Status wraps Health into the probe result the dashboard tiles render.
func (c *Client) Status(ctx context.Context) ConnectionStatus {
	if err := c.Health(ctx); err != nil {
		return ConnectionStatus{Online: false, Message: err.Error()}
	}
	return ConnectionStatus{Online: true, StatusCode: http.StatusOK, Message: "Connection successful"}
}

// LearningStatus returns the current self-learning system status.
func (c *Client) LearningStatus(ctx context.Context) (*LearningStatus, error) {
	var status LearningStatus
	if err := c.api.Get(ctx, "/api/learning/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// PerformanceMetrics returns the backend's performance metrics.
func (c *Client) PerformanceMetrics(ctx context.Context) (*PerformanceMetrics, error) {
	var metrics PerformanceMetrics
	if err := c.api.Get(ctx, "/api/learning/performance-metrics", &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// VersionHistory returns the backend's version history.
func (c *Client) VersionHistory(ctx context.Context) (*VersionHistory, error) {
	var history VersionHistory
	if err := c.api.Get(ctx, "/api/learning/version-history", &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// TriggerImprovement starts an improvement cycle. Manual triggers carry the
// caller's payload; autonomous ones send an empty body.
func (c *Client) TriggerImprovement(ctx context.Context, kind ImprovementKind, payload any) (*ImprovementResult, error) {
	var endpoint string
	switch kind {
	case ImprovementAutonomous:
		endpoint = "/api/learning/autonomous-improvement"
		payload = struct{}{}
	case ImprovementManual:
		endpoint = "/api/learning/manual-improvement"
	default:
		return nil, errors.ValidationError("unknown improvement kind").
			WithContext("kind", string(kind))
	}

	var raw json.RawMessage
	if err := c.api.Post(ctx, endpoint, payload, &raw); err != nil {
		return nil, err
	}
	return &ImprovementResult{Raw: raw}, nil
}

// EthicsPrinciples returns the backend's immutable ethics catalog.
func (c *Client) EthicsPrinciples(ctx context.Context) (*EthicsPrinciples, error) {
	var principles EthicsPrinciples
	if err := c.api.Get(ctx, "/api/ai/ethics/principles", &principles); err != nil {
		return nil, err
	}
	return &principles, nil
}

// SecurityConfig returns the backend's security configuration document.
func (c *Client) SecurityConfig(ctx context.Context) (*SecurityConfig, error) {
	var raw json.RawMessage
	if err := c.api.Get(ctx, "/api/ai/config/security", &raw); err != nil {
		return nil, err
	}
	return &SecurityConfig{Raw: raw}, nil
}

// UpdateSecurityConfig submits a replacement security configuration. The
// backend rejects documents missing its required sections.
func (c *Client) UpdateSecurityConfig(ctx context.Context, doc map[string]any) (*SecurityConfig, error) {
	var raw json.RawMessage
	if err := c.api.Post(ctx, "/api/ai/config/security", doc, &raw); err != nil {
		return nil, err
	}
	return &SecurityConfig{Raw: raw}, nil
}

// AnalyzeServices asks the self-extending service for its current needs
// analysis.
func (c *Client) AnalyzeServices(ctx context.Context) (*ServiceAnalysis, error) {
	var raw json.RawMessage
	if err := c.api.Get(ctx, "/api/ai/services/analyze", &raw); err != nil {
		return nil, err
	}
	return &ServiceAnalysis{Raw: raw}, nil
}
