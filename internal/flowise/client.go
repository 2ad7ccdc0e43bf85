// Package flowise implements the client for the Flowise workflow engine:
// chatflow CRUD, predictions, and the optimized-copy helper the dashboard's
// Flowise panel exposes.
package flowise

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/blobb999/selfsustain/internal/apiclient"
	"github.com/blobb999/selfsustain/internal/config"
	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/retry"
)

// Client talks to the Flowise REST API (v1).
type Client struct {
	api *apiclient.Client
}

// NewClient creates a Flowise client from an endpoint configuration.
func NewClient(ep config.ServiceEndpoint) *Client {
	httpClient := &http.Client{Timeout: ep.Timeout.Std()}
	if ep.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}
	return &Client{
		api: apiclient.New(httpClient, ep.BaseURL, ep.APIKey(), errors.CategoryFlowise),
	}
}

// SetBaseURL re-points the client at runtime.
func (c *Client) SetBaseURL(url string) { c.api.SetBaseURL(url) }

// BaseURL returns the current endpoint.
func (c *Client) BaseURL() string { return c.api.BaseURL() }

// SetRetryPolicy applies the configured backoff policy for transient failures.
func (c *Client) SetRetryPolicy(p retry.Policy) { c.api.SetRetryPolicy(p) }

// TestConnection probes the chatflows listing, the cheapest authenticated call.
func (c *Client) TestConnection(ctx context.Context) ConnectionStatus {
	if err := c.api.Get(ctx, "/api/v1/chatflows", nil); err != nil {
		return ConnectionStatus{Online: false, Message: err.Error()}
	}
	return ConnectionStatus{Online: true, StatusCode: http.StatusOK, Message: "Connection successful"}
}

// ListChatflows returns all chatflows.
func (c *Client) ListChatflows(ctx context.Context) ([]Chatflow, error) {
	var flows []Chatflow
	if err := c.api.Get(ctx, "/api/v1/chatflows", &flows); err != nil {
		return nil, err
	}
	return flows, nil
}

// GetChatflow returns a single chatflow by ID.
func (c *Client) GetChatflow(ctx context.Context, id string) (*Chatflow, error) {
	var flow Chatflow
	if err := c.api.Get(ctx, "/api/v1/chatflows/"+id, &flow); err != nil {
		return nil, err
	}
	return &flow, nil
}

// CreateChatflow creates a new chatflow and returns the stored version.
func (c *Client) CreateChatflow(ctx context.Context, flow *Chatflow) (*Chatflow, error) {
	var created Chatflow
	if err := c.api.Post(ctx, "/api/v1/chatflows", flow, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateChatflow updates an existing chatflow.
func (c *Client) UpdateChatflow(ctx context.Context, id string, flow *Chatflow) (*Chatflow, error) {
	var updated Chatflow
	if err := c.api.Put(ctx, "/api/v1/chatflows/"+id, flow, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteChatflow removes a chatflow.
func (c *Client) DeleteChatflow(ctx context.Context, id string) error {
	return c.api.Delete(ctx, "/api/v1/chatflows/"+id, nil)
}

// Predict sends a message to a chatflow and returns its prediction.
func (c *Client) Predict(ctx context.Context, chatflowID, question, sessionID string) (*PredictionResponse, error) {
	req := PredictionRequest{Question: question, SessionID: sessionID}
	var resp PredictionResponse
	if err := c.api.Post(ctx, "/api/v1/prediction/"+chatflowID, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats returns usage statistics for a chatflow. Flowise has no stats API,
// so the result is synthesized after verifying the chatflow exists.
func (c *Client) Stats(ctx context.Context, chatflowID string) (*ChatflowStats, error) {
	if _, err := c.GetChatflow(ctx, chatflowID); err != nil {
		return nil, err
	}
	return &ChatflowStats{
		ChatflowID:  chatflowID,
		SuccessRate: 1.0,
		LastUsed:    time.Now().UTC(),
		Synthesized: true,
	}, nil
}

// CreateOptimizedCopy clones a chatflow under an "Optimized_" name with its
// LLM nodes re-tuned to the given parameters.
func (c *Client) CreateOptimizedCopy(ctx context.Context, chatflowID string, params OptimizationParams) (*Chatflow, error) {
	original, err := c.GetChatflow(ctx, chatflowID)
	if err != nil {
		return nil, err
	}

	copyFlow := *original
	copyFlow.ID = ""
	copyFlow.Deployed = false
	copyFlow.Name = "Optimized_" + original.Name
	if original.Name == "" {
		copyFlow.Name = "Optimized_Chatflow"
	}

	if original.FlowData != "" {
		tuned, err := retuneLLMNodes(original.FlowData, params)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryFlowise, errors.SeverityError, "failed to retune flow data").
				WithContext("chatflow_id", chatflowID)
		}
		copyFlow.FlowData = tuned
	}

	return c.CreateChatflow(ctx, &copyFlow)
}

// retuneLLMNodes rewrites temperature and maxTokens on every LLM node of a
// stringified flow graph.
func retuneLLMNodes(flowData string, params OptimizationParams) (string, error) {
	var graph map[string]any
	if err := json.Unmarshal([]byte(flowData), &graph); err != nil {
		return "", fmt.Errorf("parse flow data: %w", err)
	}

	nodes, ok := graph["nodes"].([]any)
	if !ok {
		return flowData, nil
	}

	for _, n := range nodes {
		node, ok := n.(map[string]any)
		if !ok {
			continue
		}
		if nodeType, _ := node["type"].(string); nodeType != "llm" {
			continue
		}
		data, ok := node["data"].(map[string]any)
		if !ok {
			data = make(map[string]any)
			node["data"] = data
		}
		data["temperature"] = params.Temperature
		data["maxTokens"] = params.MaxTokens
	}

	out, err := json.Marshal(graph)
	if err != nil {
		return "", fmt.Errorf("serialize flow data: %w", err)
	}
	return string(out), nil
}
