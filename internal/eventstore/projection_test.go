package eventstore

import (
	"encoding/json"
	"testing"
	"time"
)

func statusEvent(t *testing.T, service string, online bool, at time.Time) Event {
	t.Helper()
	event, err := NewServiceStatusChanged(service, online, 10*time.Millisecond, "")
	if err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	event.EventTimestamp = at
	return event
}

func TestUptimeProjectionApply(t *testing.T) {
	p := NewUptimeProjection(nil)
	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	p.Apply(statusEvent(t, "engine", true, base))
	p.Apply(statusEvent(t, "engine", false, base.Add(10*time.Minute)))
	p.Apply(statusEvent(t, "engine", true, base.Add(12*time.Minute)))

	summary, ok := p.Summary("engine")
	if !ok {
		t.Fatal("expected engine summary")
	}
	if !summary.Online {
		t.Error("expected engine online after last transition")
	}
	if summary.Transitions != 3 {
		t.Errorf("expected 3 transitions, got %d", summary.Transitions)
	}
	if summary.TotalOnline != 10*time.Minute {
		t.Errorf("expected 10m online, got %s", summary.TotalOnline)
	}
	if summary.TotalOffline != 2*time.Minute {
		t.Errorf("expected 2m offline, got %s", summary.TotalOffline)
	}
	if summary.OnlineSince == nil || !summary.OnlineSince.Equal(base.Add(12*time.Minute)) {
		t.Errorf("unexpected online_since: %v", summary.OnlineSince)
	}
}

func TestUptimeSummaryJSONDurationsInMilliseconds(t *testing.T) {
	p := NewUptimeProjection(nil)
	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	p.Apply(statusEvent(t, "llm", true, base))
	p.Apply(statusEvent(t, "llm", false, base.Add(90*time.Second)))

	summary, ok := p.Summary("llm")
	if !ok {
		t.Fatal("expected llm summary")
	}

	data, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got := fields["total_online_ms"]; got != float64(90000) {
		t.Errorf("expected total_online_ms 90000, got %v", got)
	}
	if got := fields["total_offline_ms"]; got != float64(0) {
		t.Errorf("expected total_offline_ms 0, got %v", got)
	}
	for _, key := range []string{"TotalOnline", "TotalOffline"} {
		if _, present := fields[key]; present {
			t.Errorf("unexpected raw duration field %q in JSON", key)
		}
	}
}

func TestUptimeProjectionIgnoresOtherEventTypes(t *testing.T) {
	p := NewUptimeProjection(nil)

	chat, err := NewChatExchanged("sess-1", "phi3:mini", time.Second, false)
	if err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	p.Apply(chat)

	if len(p.Summaries()) != 0 {
		t.Errorf("expected no summaries, got %d", len(p.Summaries()))
	}
}

func TestUptimeProjectionRebuild(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	for _, online := range []bool{true, false, true} {
		event, buildErr := NewServiceStatusChanged("flowise", online, 0, "")
		if buildErr != nil {
			t.Fatalf("failed to build event: %v", buildErr)
		}
		if recordErr := Record(ctx, store, event); recordErr != nil {
			t.Fatalf("failed to record event: %v", recordErr)
		}
	}

	p := NewUptimeProjection(store)
	if err := p.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}

	summary, ok := p.Summary("flowise")
	if !ok {
		t.Fatal("expected flowise summary")
	}
	if summary.Transitions != 3 {
		t.Errorf("expected 3 transitions, got %d", summary.Transitions)
	}
	if !summary.Online {
		t.Error("expected flowise online after rebuild")
	}
	if p.LastSyncTime().IsZero() {
		t.Error("expected last sync time to be set")
	}
}
