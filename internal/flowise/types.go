package flowise

import (
	"encoding/json"
	"time"
)

// Chatflow mirrors the fields of a Flowise chatflow the panel renders or
// edits. FlowData is the stringified node/edge graph; the panel treats it as
// opaque except when deriving an optimized copy.
type Chatflow struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	FlowData    string `json:"flowData,omitempty"`
	Deployed    bool   `json:"deployed,omitempty"`
	IsPublic    bool   `json:"isPublic,omitempty"`
	Category    string `json:"category,omitempty"`
	Type        string `json:"type,omitempty"`
	CreatedDate string `json:"createdDate,omitempty"`
	UpdatedDate string `json:"updatedDate,omitempty"`
}

// PredictionRequest is the payload for /api/v1/prediction/{id}.
type PredictionRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId,omitempty"`
}

// PredictionResponse captures the loosely-typed prediction result. Flowise
// returns additional free-form fields; Raw preserves them for passthrough.
type PredictionResponse struct {
	Text      string          `json:"text"`
	Question  string          `json:"question,omitempty"`
	ChatID    string          `json:"chatId,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the raw payload alongside the typed fields.
func (p *PredictionResponse) UnmarshalJSON(data []byte) error {
	type alias PredictionResponse
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = PredictionResponse(a)
	p.Raw = append(p.Raw[:0], data...)
	return nil
}

// ChatflowStats describes usage statistics for a chatflow. Flowise exposes
// no stats endpoint, so the panel synthesizes a deterministic placeholder
// and marks it as such.
type ChatflowStats struct {
	ChatflowID      string    `json:"chatflow_id"`
	TotalMessages   int       `json:"total_messages"`
	AvgResponseTime float64   `json:"avg_response_time"`
	SuccessRate     float64   `json:"success_rate"`
	LastUsed        time.Time `json:"last_used"`
	Synthesized     bool      `json:"synthesized"`
}

// ConnectionStatus reports the outcome of a connectivity probe.
type ConnectionStatus struct {
	Online     bool   `json:"online"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
}

// OptimizationParams tunes the LLM nodes of an optimized chatflow copy.
type OptimizationParams struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}
