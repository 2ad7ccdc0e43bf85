// Package metrics provides observability hooks for the panel: probe timings,
// service availability, HTTP traffic, and chat round trips.
package metrics

import "time"

// ResultLabel enumerates probe result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
	ResultTimeout ResultLabel = "timeout"
)

// Recorder defines observability hooks for probe and request metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe on the NoopRecorder so injection stays optional.
type Recorder interface {
	ObserveProbeDuration(service string, d time.Duration)
	IncProbeResult(service string, result ResultLabel)
	SetServiceUp(service string, up bool)
	IncHTTPRequest(method, path string, status int)
	ObserveChatDuration(target string, d time.Duration, errored bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are
// not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveProbeDuration(string, time.Duration)      {}
func (NoopRecorder) IncProbeResult(string, ResultLabel)              {}
func (NoopRecorder) SetServiceUp(string, bool)                       {}
func (NoopRecorder) IncHTTPRequest(string, string, int)              {}
func (NoopRecorder) ObserveChatDuration(string, time.Duration, bool) {}
