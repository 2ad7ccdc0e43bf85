// Package monitor runs the periodic health probes behind the dashboard
// status tiles and records online/offline transitions.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blobb999/selfsustain/internal/eventstore"
	"github.com/blobb999/selfsustain/internal/logfields"
	"github.com/blobb999/selfsustain/internal/metrics"
)

// Probe checks one external service. Check returns nil when the service is
// reachable and healthy.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// ServiceState is the last known state of one probed service.
type ServiceState struct {
	Name        string        `json:"name"`
	Online      bool          `json:"online"`
	LastChecked time.Time     `json:"last_checked"`
	LastError   string        `json:"last_error,omitempty"`
	Latency     time.Duration `json:"latency_ms"`
}

// TransitionPublisher receives online/offline flips, e.g. the NATS publisher.
type TransitionPublisher interface {
	PublishTransition(service string, online bool, latency time.Duration, lastError string)
}

// Snapshot is the aggregated view the dashboard polls.
type Snapshot struct {
	Services  []ServiceState      `json:"services"`
	Samples   map[string][]Sample `json:"samples"`
	Ready     bool                `json:"ready"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Monitor fans probes out in parallel on each cycle and tracks per-service
// state, sample windows, and transitions.
type Monitor struct {
	probes       []Probe
	probeTimeout time.Duration
	recorder     metrics.Recorder
	store        eventstore.Store
	publisher    TransitionPublisher

	mu      sync.RWMutex
	states  map[string]*ServiceState
	windows map[string]*Window
	ready   bool
}

// Option configures optional monitor collaborators.
type Option func(*Monitor)

// WithRecorder wires a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(m *Monitor) { m.recorder = r }
}

// WithStore wires an event store for transition events.
func WithStore(s eventstore.Store) Option {
	return func(m *Monitor) { m.store = s }
}

// WithPublisher wires a transition publisher.
func WithPublisher(p TransitionPublisher) Option {
	return func(m *Monitor) { m.publisher = p }
}

// New creates a monitor over the given probes. States are seeded immediately
// so the dashboard never renders an unknown service, and marked offline
// until the first probe cycle proves otherwise.
func New(probes []Probe, probeTimeout time.Duration, windowSize int, opts ...Option) *Monitor {
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}

	m := &Monitor{
		probes:       probes,
		probeTimeout: probeTimeout,
		recorder:     metrics.NoopRecorder{},
		states:       make(map[string]*ServiceState, len(probes)),
		windows:      make(map[string]*Window, len(probes)),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, p := range probes {
		m.states[p.Name] = &ServiceState{Name: p.Name}
		m.windows[p.Name] = NewWindow(windowSize)
	}
	return m
}

// RunOnce executes all probes in parallel and updates state. It never
// returns an error from a failed probe; failures flip services offline.
func (m *Monitor) RunOnce(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	for _, probe := range m.probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, m.probeTimeout)
			defer cancel()

			start := time.Now()
			err := probe.Check(pctx)
			latency := time.Since(start)

			m.recorder.ObserveProbeDuration(probe.Name, latency)
			if err != nil {
				m.recorder.IncProbeResult(probe.Name, probeResult(pctx))
				m.apply(ctx, probe.Name, false, latency, err.Error())
			} else {
				m.recorder.IncProbeResult(probe.Name, metrics.ResultSuccess)
				m.apply(ctx, probe.Name, true, latency, "")
			}
			return nil
		})
	}

	_ = g.Wait()

	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()
}

func probeResult(ctx context.Context) metrics.ResultLabel {
	if ctx.Err() == context.DeadlineExceeded {
		return metrics.ResultTimeout
	}
	return metrics.ResultFailure
}

// apply updates one service state and emits transition side effects.
func (m *Monitor) apply(ctx context.Context, name string, online bool, latency time.Duration, lastError string) {
	m.mu.Lock()
	state := m.states[name]
	wasOnline := state.Online
	hadChecked := !state.LastChecked.IsZero()
	state.Online = online
	state.LastChecked = time.Now()
	state.LastError = lastError
	state.Latency = latency
	m.windows[name].Add(Sample{Time: state.LastChecked, Online: online, Latency: latency})
	m.mu.Unlock()

	m.recorder.SetServiceUp(name, online)

	// The very first observation counts as a transition so the event log
	// always opens with a known state.
	if hadChecked && wasOnline == online {
		return
	}
	m.emitTransition(ctx, name, online, latency, lastError)
}

func (m *Monitor) emitTransition(ctx context.Context, name string, online bool, latency time.Duration, lastError string) {
	slog.Info("service status changed",
		logfields.Service(name),
		logfields.Online(online),
		logfields.DurationMS(float64(latency.Milliseconds())))

	if m.store != nil {
		event, err := eventstore.NewServiceStatusChanged(name, online, latency, lastError)
		if err == nil {
			err = eventstore.Record(ctx, m.store, event)
		}
		if err != nil {
			slog.Warn("failed to record status transition", logfields.Service(name), logfields.Error(err))
		}
	}

	if m.publisher != nil {
		m.publisher.PublishTransition(name, online, latency, lastError)
	}
}

// Snapshot returns the current aggregated view.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Services:  make([]ServiceState, 0, len(m.probes)),
		Samples:   make(map[string][]Sample, len(m.probes)),
		Ready:     m.ready,
		UpdatedAt: time.Now(),
	}
	// Preserve probe declaration order for stable tile layout.
	for _, p := range m.probes {
		snap.Services = append(snap.Services, *m.states[p.Name])
		snap.Samples[p.Name] = m.windows[p.Name].Samples()
	}
	return snap
}

// Ready reports whether at least one full probe cycle has completed.
func (m *Monitor) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}
