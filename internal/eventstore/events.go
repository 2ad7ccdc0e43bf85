package eventstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/blobb999/selfsustain/internal/errors"
)

// Event type names.
const (
	TypeServiceStatusChanged = "ServiceStatusChanged"
	TypeChatExchanged        = "ChatExchanged"
	TypeImprovementTriggered = "ImprovementTriggered"
)

// ServiceStatusChanged is emitted when a probed service flips between
// online and offline.
type ServiceStatusChanged struct {
	BaseEvent
	Service   string        `json:"service"`
	Online    bool          `json:"online"`
	Latency   time.Duration `json:"latency_ms"`
	LastError string        `json:"last_error,omitempty"`
}

// NewServiceStatusChanged creates a status transition event.
func NewServiceStatusChanged(service string, online bool, latency time.Duration, lastError string) (*ServiceStatusChanged, error) {
	payload, err := json.Marshal(map[string]any{
		"service":    service,
		"online":     online,
		"latency_ms": latency.Milliseconds(),
		"last_error": lastError,
	})
	if err != nil {
		return nil, errors.StoreError("marshal ServiceStatusChanged payload", err).
			WithContext("service", service)
	}

	return &ServiceStatusChanged{
		BaseEvent: BaseEvent{
			EventSubject:   service,
			EventType:      TypeServiceStatusChanged,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Service:   service,
		Online:    online,
		Latency:   latency,
		LastError: lastError,
	}, nil
}

// ChatExchanged is emitted after a chat round trip, successful or not.
type ChatExchanged struct {
	BaseEvent
	SessionID string        `json:"session_id"`
	Target    string        `json:"target"` // model name or chatflow ID
	Duration  time.Duration `json:"duration_ms"`
	Errored   bool          `json:"errored"`
}

// NewChatExchanged creates a chat round-trip event.
func NewChatExchanged(sessionID, target string, duration time.Duration, errored bool) (*ChatExchanged, error) {
	payload, err := json.Marshal(map[string]any{
		"session_id":  sessionID,
		"target":      target,
		"duration_ms": duration.Milliseconds(),
		"errored":     errored,
	})
	if err != nil {
		return nil, errors.StoreError("marshal ChatExchanged payload", err).
			WithContext("session_id", sessionID)
	}

	return &ChatExchanged{
		BaseEvent: BaseEvent{
			EventSubject:   sessionID,
			EventType:      TypeChatExchanged,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		SessionID: sessionID,
		Target:    target,
		Duration:  duration,
		Errored:   errored,
	}, nil
}

// ImprovementTriggered is emitted when the panel forwards an improvement
// trigger to the learning backend.
type ImprovementTriggered struct {
	BaseEvent
	Kind string `json:"kind"`
}

// NewImprovementTriggered creates an improvement trigger event.
func NewImprovementTriggered(kind string) (*ImprovementTriggered, error) {
	payload, err := json.Marshal(map[string]any{"kind": kind})
	if err != nil {
		return nil, errors.StoreError("marshal ImprovementTriggered payload", err).
			WithContext("kind", kind)
	}

	return &ImprovementTriggered{
		BaseEvent: BaseEvent{
			EventSubject:   "engine",
			EventType:      TypeImprovementTriggered,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Kind: kind,
	}, nil
}

// Record persists an already-constructed event.
func Record(ctx context.Context, store Store, event Event) error {
	return store.Append(ctx, event.Subject(), event.Type(), event.Payload(), event.Metadata())
}
