package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/blobb999/selfsustain/internal/config"
	"github.com/blobb999/selfsustain/internal/eventstore"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.EventStore.Enabled = false
	cfg.Events.Enabled = false
	cfg.Metrics.Enabled = false
	return cfg
}

func TestNewDaemon_RequiresConfig(t *testing.T) {
	if _, err := NewDaemon(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewDaemon_StartsStopped(t *testing.T) {
	d, err := NewDaemon(testConfig())
	if err != nil {
		t.Fatalf("NewDaemon: %v", err)
	}
	if d.GetStatus() != StatusStopped {
		t.Fatalf("expected stopped, got %s", d.GetStatus())
	}
}

func TestDaemon_Probes(t *testing.T) {
	d, err := NewDaemon(testConfig())
	if err != nil {
		t.Fatalf("NewDaemon: %v", err)
	}

	probes := d.probes()
	if len(probes) != 3 {
		t.Fatalf("expected 3 probes, got %d", len(probes))
	}
	names := map[string]bool{}
	for _, p := range probes {
		names[p.Name] = true
		if p.Check == nil {
			t.Fatalf("probe %s has no check", p.Name)
		}
	}
	for _, want := range []string{"engine", "flowise", "llm"} {
		if !names[want] {
			t.Fatalf("missing probe %q", want)
		}
	}
}

func TestDaemon_ReloadConfigRepointsClients(t *testing.T) {
	d, err := NewDaemon(testConfig())
	if err != nil {
		t.Fatalf("NewDaemon: %v", err)
	}

	newCfg := testConfig()
	newCfg.Services.Engine.BaseURL = "http://engine.internal:5000"
	newCfg.Services.LLM.BaseURL = "http://llm.internal:11434"

	if err := d.ReloadConfig(context.Background(), newCfg); err != nil {
		t.Fatalf("ReloadConfig: %v", err)
	}
	if got := d.engine.BaseURL(); got != "http://engine.internal:5000" {
		t.Fatalf("engine not repointed: %q", got)
	}
	if got := d.llm.BaseURL(); got != "http://llm.internal:11434" {
		t.Fatalf("llm not repointed: %q", got)
	}
	// Unchanged endpoint keeps its URL.
	if got := d.flowise.BaseURL(); got != config.DefaultFlowiseURL {
		t.Fatalf("flowise unexpectedly repointed: %q", got)
	}
	if d.GetConfig() != newCfg {
		t.Fatal("config pointer not swapped")
	}
}

func TestDaemon_StopLeavesTerminalStatusStopped(t *testing.T) {
	cfg := testConfig()
	cfg.Server.DashboardPort = 0
	cfg.Server.AdminPort = 0
	cfg.Polling.ProbeTimeout = config.Duration(50 * time.Millisecond)

	d, err := NewDaemon(cfg)
	if err != nil {
		t.Fatalf("NewDaemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan error, 1)
	go func() { started <- d.Start(ctx) }()

	deadline := time.After(5 * time.Second)
	for d.GetStatus() != StatusRunning {
		select {
		case err := <-started:
			t.Fatalf("Start returned early: %v", err)
		case <-deadline:
			t.Fatal("daemon never reached running state")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case err := <-started:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	// Start must not overwrite the terminal state Stop already recorded.
	if got := d.GetStatus(); got != StatusStopped {
		t.Fatalf("expected stopped after shutdown, got %s", got)
	}
}

func TestProjectingStore_AppendUpdatesProjection(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	projection := eventstore.NewUptimeProjection(store)
	ps := newProjectingStore(store, projection)

	event, err := eventstore.NewServiceStatusChanged("engine", true, 20*time.Millisecond, "")
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	if err := eventstore.Record(context.Background(), ps, event); err != nil {
		t.Fatalf("record: %v", err)
	}

	// Projection sees the transition without a rebuild.
	summary, ok := projection.Summary("engine")
	if !ok {
		t.Fatal("projection missing engine summary")
	}
	if !summary.Online || summary.Transitions != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	// And the event also landed in the underlying store.
	persisted, err := store.GetBySubject(context.Background(), "engine")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("expected 1 persisted event, got %d", len(persisted))
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	ran := make(chan struct{}, 1)
	if err := s.ScheduleProbes(10*time.Millisecond, func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("ScheduleProbes: %v", err)
	}

	ctx := context.Background()
	s.Start(ctx)
	defer s.Stop(ctx)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled probe task never ran")
	}
}
