package eventstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// UptimeSummary is a read model folding status transitions into a
// per-service availability picture.
type UptimeSummary struct {
	Service      string        `json:"service"`
	Online       bool          `json:"online"`
	Transitions  int           `json:"transitions"`
	LastChange   time.Time     `json:"last_change"`
	OnlineSince  *time.Time    `json:"online_since,omitempty"`
	OfflineSince *time.Time    `json:"offline_since,omitempty"`
	TotalOnline  time.Duration `json:"-"`
	TotalOffline time.Duration `json:"-"`
}

// MarshalJSON exposes the accumulated durations as milliseconds, matching the
// other duration fields the dashboard consumes.
func (s *UptimeSummary) MarshalJSON() ([]byte, error) {
	type alias UptimeSummary
	return json.Marshal(struct {
		*alias
		TotalOnlineMS  int64 `json:"total_online_ms"`
		TotalOfflineMS int64 `json:"total_offline_ms"`
	}{
		alias:          (*alias)(s),
		TotalOnlineMS:  s.TotalOnline.Milliseconds(),
		TotalOfflineMS: s.TotalOffline.Milliseconds(),
	})
}

// UptimeProjection maintains an in-memory availability view per service,
// reconstructed from status transition events.
type UptimeProjection struct {
	mu       sync.RWMutex
	store    Store
	services map[string]*UptimeSummary
	lastSync time.Time
}

// NewUptimeProjection creates a projection backed by the given store.
func NewUptimeProjection(store Store) *UptimeProjection {
	return &UptimeProjection{
		store:    store,
		services: make(map[string]*UptimeSummary),
	}
}

// Rebuild reconstructs the projection from all events in the store.
// Typically called at startup.
func (p *UptimeProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.services = make(map[string]*UptimeSummary)
	for _, event := range events {
		p.applyLocked(event)
	}
	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event for real-time updates.
func (p *UptimeProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(event)
}

func (p *UptimeProjection) applyLocked(event Event) {
	if event.Type() != TypeServiceStatusChanged {
		return
	}

	var payload struct {
		Service string `json:"service"`
		Online  bool   `json:"online"`
	}
	if err := json.Unmarshal(event.Payload(), &payload); err != nil || payload.Service == "" {
		return
	}

	summary, exists := p.services[payload.Service]
	if !exists {
		summary = &UptimeSummary{Service: payload.Service}
		p.services[payload.Service] = summary
	}

	at := event.Timestamp()

	// Accumulate the elapsed interval in the state we are leaving.
	if !summary.LastChange.IsZero() {
		elapsed := at.Sub(summary.LastChange)
		if elapsed > 0 {
			if summary.Online {
				summary.TotalOnline += elapsed
			} else {
				summary.TotalOffline += elapsed
			}
		}
	}

	summary.Online = payload.Online
	summary.Transitions++
	summary.LastChange = at
	if payload.Online {
		summary.OnlineSince = &at
		summary.OfflineSince = nil
	} else {
		summary.OfflineSince = &at
		summary.OnlineSince = nil
	}
}

// Summary returns the availability view for one service.
func (p *UptimeProjection) Summary(service string) (*UptimeSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.services[service]
	if !exists {
		return nil, false
	}
	cp := *summary
	return &cp, true
}

// Summaries returns all per-service availability views.
func (p *UptimeProjection) Summaries() []*UptimeSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*UptimeSummary, 0, len(p.services))
	for _, summary := range p.services {
		cp := *summary
		result = append(result, &cp)
	}
	return result
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *UptimeProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
