// Package eventstore provides an append-only log of panel events: service
// status transitions and chat exchanges.
package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving events.
type Store interface {
	// Append adds a new event to the store. Subject is the service name for
	// status events or the session ID for chat events.
	Append(ctx context.Context, subject, eventType string, payload []byte, metadata map[string]string) error

	// GetBySubject retrieves all events for a specific subject.
	GetBySubject(ctx context.Context, subject string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
