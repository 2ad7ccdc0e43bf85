package engine

import "encoding/json"

// LearningStatus is the engine's /api/learning/status response. The insight
// and metric maps are free-form on the wire, so they stay raw for passthrough.
type LearningStatus struct {
	Status           string          `json:"status"`
	CurrentVersion   string          `json:"current_version"`
	LearningInsights json.RawMessage `json:"learning_insights,omitempty"`
	SystemMetrics    json.RawMessage `json:"system_metrics,omitempty"`
	Timestamp        string          `json:"timestamp"`
}

// PerformanceMetrics is the /api/learning/performance-metrics response.
type PerformanceMetrics struct {
	PerformanceMetrics   json.RawMessage `json:"performance_metrics,omitempty"`
	CurrentSystemMetrics json.RawMessage `json:"current_system_metrics,omitempty"`
	Timestamp            string          `json:"timestamp"`
}

// VersionHistory is the /api/learning/version-history response.
type VersionHistory struct {
	CurrentVersion string          `json:"current_version"`
	VersionHistory json.RawMessage `json:"version_history,omitempty"`
	TotalVersions  int             `json:"total_versions"`
	Timestamp      string          `json:"timestamp"`
}

// EthicsPrinciples is the backend's immutable ethics catalog. Principles and
// safety rules are backend-defined documents, so they stay raw.
type EthicsPrinciples struct {
	Principles        json.RawMessage `json:"principles,omitempty"`
	SafetyRules       json.RawMessage `json:"safety_rules,omitempty"`
	Immutable         bool            `json:"immutable"`
	IntegrityVerified bool            `json:"integrity_verified"`
}

// SecurityConfig carries the backend's security configuration document. The
// backend validates the section keys; the panel only relays the payload.
type SecurityConfig struct {
	Raw json.RawMessage
}

// ServiceAnalysis carries the self-extending service's free-form needs
// analysis.
type ServiceAnalysis struct {
	Raw json.RawMessage
}

// ImprovementKind selects which improvement trigger to call.
type ImprovementKind string

const (
	// ImprovementAutonomous runs the engine's own improvement cycle.
	ImprovementAutonomous ImprovementKind = "autonomous"
	// ImprovementManual submits user-provided improvement data.
	ImprovementManual ImprovementKind = "manual"
)

// ImprovementResult carries the engine's free-form trigger response.
type ImprovementResult struct {
	Raw json.RawMessage
}
