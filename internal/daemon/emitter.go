package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/blobb999/selfsustain/internal/events"
	"github.com/blobb999/selfsustain/internal/eventstore"
	"github.com/blobb999/selfsustain/internal/logfields"
)

// projectingStore wraps an event store so every append also updates the
// uptime projection, keeping the read model current without a rebuild.
type projectingStore struct {
	eventstore.Store
	projection *eventstore.UptimeProjection
}

func newProjectingStore(store eventstore.Store, projection *eventstore.UptimeProjection) *projectingStore {
	return &projectingStore{Store: store, projection: projection}
}

func (s *projectingStore) Append(ctx context.Context, subject, eventType string, payload []byte, metadata map[string]string) error {
	if err := s.Store.Append(ctx, subject, eventType, payload, metadata); err != nil {
		return err
	}
	s.projection.Apply(&eventstore.BaseEvent{
		EventSubject:   subject,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
		EventMetadata:  metadata,
	})
	return nil
}

// publisherAdapter bridges monitor transitions onto the NATS publisher.
type publisherAdapter struct {
	publisher *events.Publisher
}

func newPublisherAdapter(p *events.Publisher) *publisherAdapter {
	return &publisherAdapter{publisher: p}
}

func (a *publisherAdapter) PublishTransition(service string, online bool, latency time.Duration, lastError string) {
	err := a.publisher.PublishStatus(&events.StatusEvent{
		Service:   service,
		Online:    online,
		LatencyMS: latency.Milliseconds(),
		Error:     lastError,
		Timestamp: time.Now(),
	})
	if err != nil {
		slog.Warn("failed to publish status transition",
			logfields.Service(service),
			logfields.Error(err))
	}
}
