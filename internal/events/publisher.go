// Package events publishes service status transitions to NATS and caches the
// last known status per service in a JetStream KV bucket. Publishing is
// optional and config-gated; the panel runs fine without a broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/blobb999/selfsustain/internal/config"
)

// StatusEvent is published on every online/offline transition so downstream
// consumers (alerting, dashboards) can react without polling the panel.
type StatusEvent struct {
	Service   string    `json:"service"`
	Online    bool      `json:"online"`
	LatencyMS int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher manages the NATS connection and KV bucket.
type Publisher struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	kv       jetstream.KeyValue
	subject  string
	kvBucket string
}

// NewPublisher connects to NATS and ensures the status KV bucket exists.
func NewPublisher(cfg config.EventsConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("event publishing is disabled")
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{
		conn:     conn,
		js:       js,
		subject:  cfg.Subject,
		kvBucket: cfg.KVBucket,
	}

	if err := p.initKVBucket(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize KV bucket: %w", err)
	}

	slog.Info("NATS publisher initialized",
		"url", cfg.NATSURL,
		"subject", cfg.Subject,
		"kv_bucket", cfg.KVBucket)

	return p, nil
}

// initKVBucket creates or gets the KV bucket for last-known statuses.
func (p *Publisher) initKVBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := p.js.KeyValue(ctx, p.kvBucket)
	if err == nil {
		p.kv = kv
		return nil
	}

	kv, err = p.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      p.kvBucket,
		Description: "Last known service status per panel service",
		MaxBytes:    1024 * 1024,
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("failed to create KV bucket: %w", err)
	}

	p.kv = kv
	slog.Info("Created KV bucket for service status", "bucket", p.kvBucket)
	return nil
}

// PublishStatus publishes a transition and updates the KV cache.
func (p *Publisher) PublishStatus(event *StatusEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if _, err := p.kv.Put(ctx, event.Service, data); err != nil {
		return fmt.Errorf("failed to cache status: %w", err)
	}

	slog.Debug("Published status transition",
		"service", event.Service,
		"online", event.Online)

	return nil
}

// LastStatus returns the cached status for a service, or nil if none.
func (p *Publisher) LastStatus(service string) (*StatusEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	entry, err := p.kv.Get(ctx, service)
	if err != nil {
		if err == jetstream.ErrKeyNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached status: %w", err)
	}

	var cached StatusEvent
	if err := json.Unmarshal(entry.Value(), &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached status: %w", err)
	}

	return &cached, nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
