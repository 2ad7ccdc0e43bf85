package monitor

import (
	"sync"
	"time"
)

// Sample is one probe observation for the dashboard charts.
type Sample struct {
	Time    time.Time     `json:"time"`
	Online  bool          `json:"online"`
	Latency time.Duration `json:"latency_ms"`
}

// Window is a capped, append-only ring of recent samples per service.
type Window struct {
	mu      sync.RWMutex
	samples []Sample
	cap     int
}

// NewWindow creates a window. Non-positive caps fall back to 60.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 60
	}
	return &Window{cap: capacity}
}

// Add appends a sample, evicting the oldest once the cap is reached.
func (w *Window) Add(s Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, s)
	if len(w.samples) > w.cap {
		w.samples = w.samples[len(w.samples)-w.cap:]
	}
}

// Samples returns a copy of the window, oldest first.
func (w *Window) Samples() []Sample {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Sample, len(w.samples))
	copy(out, w.samples)
	return out
}

// Len returns the number of stored samples.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.samples)
}
