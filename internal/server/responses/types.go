// Package responses defines API response types used by the panel HTTP handlers.
package responses

import (
	"time"

	"github.com/blobb999/selfsustain/internal/chat"
	"github.com/blobb999/selfsustain/internal/eventstore"
	"github.com/blobb999/selfsustain/internal/monitor"
)

// StatusResponse is the aggregated snapshot the dashboard polls.
type StatusResponse struct {
	Status    string                      `json:"status"`
	Services  []monitor.ServiceState      `json:"services"`
	Samples   map[string][]monitor.Sample `json:"samples"`
	Uptime    []*eventstore.UptimeSummary `json:"uptime,omitempty"`
	Ready     bool                        `json:"ready"`
	Timestamp time.Time                   `json:"timestamp"`
}

// HealthResponse is the health check API response.
type HealthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	Uptime       float64   `json:"uptime"`
	DaemonStatus string    `json:"daemon_status,omitempty"`
}

// ChatResponse wraps one chat round trip.
type ChatResponse struct {
	SessionID string       `json:"session_id"`
	Reply     chat.Message `json:"reply"`
	Target    string       `json:"target"`
	Timestamp time.Time    `json:"timestamp"`
}

// ChatHistoryResponse returns a session's messages.
type ChatHistoryResponse struct {
	SessionID string         `json:"session_id"`
	Messages  []chat.Message `json:"messages"`
}

// SessionResponse returns a freshly created session ID.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// ConfigResponse reports the current service endpoints.
type ConfigResponse struct {
	Status    string         `json:"status"`
	Services  ServiceSummary `json:"services"`
	Timestamp time.Time      `json:"timestamp"`
}

// ServiceSummary is the sanitized endpoint view (no credentials).
type ServiceSummary struct {
	EngineURL  string `json:"engine_url"`
	FlowiseURL string `json:"flowise_url"`
	LLMURL     string `json:"llm_url"`
}

// DaemonStatusResponse is the admin-side operational status.
type DaemonStatusResponse struct {
	Status    string    `json:"status"`
	Uptime    float64   `json:"uptime"`
	StartTime time.Time `json:"start_time"`
	Ready     bool      `json:"ready"`
}

// TriggerResponse wraps an improvement trigger result.
type TriggerResponse struct {
	Status    string    `json:"status"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}
