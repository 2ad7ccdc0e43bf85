// Package daemon wires the control panel together: probe monitor, event
// store, HTTP servers, and the periodic scheduler.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/blobb999/selfsustain/internal/chat"
	"github.com/blobb999/selfsustain/internal/config"
	"github.com/blobb999/selfsustain/internal/engine"
	"github.com/blobb999/selfsustain/internal/events"
	"github.com/blobb999/selfsustain/internal/eventstore"
	"github.com/blobb999/selfsustain/internal/flowise"
	"github.com/blobb999/selfsustain/internal/llm"
	"github.com/blobb999/selfsustain/internal/logfields"
	"github.com/blobb999/selfsustain/internal/metrics"
	"github.com/blobb999/selfsustain/internal/monitor"
	"github.com/blobb999/selfsustain/internal/retry"
	"github.com/blobb999/selfsustain/internal/server/httpserver"
)

// Status represents the current state of the daemon
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Daemon represents the main panel service
type Daemon struct {
	config         *config.Config
	configFilePath string
	status         atomic.Value // Status
	startTime      time.Time
	stopChan       chan struct{}
	mu             sync.RWMutex

	// Service clients
	engine  *engine.Client
	flowise *flowise.Client
	llm     *llm.Client

	// Core components
	monitor       *monitor.Monitor
	chatStore     *chat.Store
	httpServer    *httpserver.Server
	scheduler     *Scheduler
	configWatcher *ConfigWatcher

	// Event sourcing components
	eventStore eventstore.Store
	uptime     *eventstore.UptimeProjection

	// Optional collaborators
	publisher *events.Publisher
	recorder  metrics.Recorder
}

// NewDaemon creates a new daemon instance
func NewDaemon(cfg *config.Config) (*Daemon, error) {
	return NewDaemonWithConfigFile(cfg, "")
}

// NewDaemonWithConfigFile creates a new daemon instance with config file watching
func NewDaemonWithConfigFile(cfg *config.Config, configFilePath string) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	d := &Daemon{
		config:         cfg,
		configFilePath: configFilePath,
		stopChan:       make(chan struct{}),
	}
	d.status.Store(StatusStopped)

	// Service clients, all sharing the configured backoff policy
	d.engine = engine.NewClient(cfg.Services.Engine)
	d.flowise = flowise.NewClient(cfg.Services.Flowise)
	d.llm = llm.NewClient(cfg.Services.LLM)
	d.applyRetryPolicy(retry.FromConfig(cfg.Retry))

	// Chat session store
	d.chatStore = chat.NewStore(cfg.Chat.HistoryLimit)

	// Metrics recorder; Noop unless Prometheus exposure is enabled.
	var promHandler http.Handler
	d.recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		d.recorder = metrics.NewPrometheusRecorder(reg)
		promHandler = metrics.HTTPHandler(reg)
	}

	// Event store and uptime projection
	var monitorStore eventstore.Store
	if cfg.EventStore.Enabled {
		store, err := eventstore.NewSQLiteStore(cfg.EventStore.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create event store: %w", err)
		}
		d.eventStore = store
		d.uptime = eventstore.NewUptimeProjection(store)
		if err := d.uptime.Rebuild(context.Background()); err != nil {
			// Non-fatal: projection starts empty.
			slog.Warn("Failed to rebuild uptime projection", logfields.Error(err))
		}
		monitorStore = newProjectingStore(store, d.uptime)
	}

	// Optional NATS transition publisher
	var transitions monitor.TransitionPublisher
	if cfg.Events.Enabled {
		pub, err := events.NewPublisher(cfg.Events)
		if err != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		d.publisher = pub
		transitions = newPublisherAdapter(pub)
	}

	// Probe monitor
	opts := []monitor.Option{monitor.WithRecorder(d.recorder)}
	if monitorStore != nil {
		opts = append(opts, monitor.WithStore(monitorStore))
	}
	if transitions != nil {
		opts = append(opts, monitor.WithPublisher(transitions))
	}
	d.monitor = monitor.New(d.probes(), cfg.Polling.ProbeTimeout.Std(), cfg.Polling.WindowSize, opts...)

	// HTTP servers
	var uptime interface {
		Summaries() []*eventstore.UptimeSummary
	}
	if d.uptime != nil {
		uptime = d.uptime
	}
	d.httpServer = httpserver.New(cfg, httpserver.Options{
		Monitor:           d.monitor,
		Engine:            d.engine,
		Flowise:           d.flowise,
		LLM:               d.llm,
		ChatStore:         d.chatStore,
		Events:            monitorStore,
		Uptime:            uptime,
		Recorder:          d.recorder,
		PrometheusHandler: promHandler,
		ChatConfig:        cfg.Chat,
	})

	// Scheduler drives the periodic probe cycle
	scheduler, err := NewScheduler()
	if err != nil {
		return nil, err
	}
	d.scheduler = scheduler

	// Config watcher if a config file path is provided
	if configFilePath != "" {
		d.configWatcher, err = NewConfigWatcher(configFilePath, d)
		if err != nil {
			return nil, fmt.Errorf("failed to create config watcher: %w", err)
		}
	}

	return d, nil
}

// applyRetryPolicy pushes one backoff policy onto all three clients.
func (d *Daemon) applyRetryPolicy(p retry.Policy) {
	d.engine.SetRetryPolicy(p)
	d.flowise.SetRetryPolicy(p)
	d.llm.SetRetryPolicy(p)
}

// probes builds one probe per configured collaborator.
func (d *Daemon) probes() []monitor.Probe {
	return []monitor.Probe{
		{Name: "engine", Check: d.engine.Health},
		{Name: "flowise", Check: func(ctx context.Context) error {
			status := d.flowise.TestConnection(ctx)
			if !status.Online {
				return fmt.Errorf("flowise unreachable: %s", status.Message)
			}
			return nil
		}},
		{Name: "llm", Check: d.llm.Ping},
	}
}

// Start starts the daemon and all its components, then blocks until the
// context is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.GetStatus() != StatusStopped {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not in stopped state: %s", d.GetStatus())
	}

	d.status.Store(StatusStarting)
	d.startTime = time.Now()

	slog.Info("Starting control panel daemon")

	if err := d.httpServer.Start(ctx); err != nil {
		d.status.Store(StatusError)
		d.mu.Unlock()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	interval := d.config.Polling.Interval.Std()
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if err := d.scheduler.ScheduleProbes(interval, func() {
		d.monitor.RunOnce(ctx)
	}); err != nil {
		d.status.Store(StatusError)
		d.mu.Unlock()
		return err
	}
	d.scheduler.Start(ctx)

	if d.configWatcher != nil {
		if err := d.configWatcher.Start(ctx); err != nil {
			slog.Error("Failed to start config watcher", logfields.Error(err))
		}
	}

	d.status.Store(StatusRunning)
	slog.Info("Control panel daemon started",
		slog.Int("dashboard_port", d.config.Server.DashboardPort),
		slog.Int("admin_port", d.config.Server.AdminPort),
		slog.Duration("poll_interval", interval))
	d.mu.Unlock()

	// First probe cycle immediately so tiles fill without waiting a tick.
	d.monitor.RunOnce(ctx)

	d.mainLoop(ctx)

	// Stop may already have completed the shutdown and stored StatusStopped;
	// only flag the transition if nothing has moved the status yet.
	d.status.CompareAndSwap(StatusRunning, StatusStopping)
	return nil
}

// mainLoop blocks until shutdown is requested.
func (d *Daemon) mainLoop(ctx context.Context) {
	select {
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down")
	case <-d.stopChan:
		slog.Info("Stop requested, shutting down")
	}
}

// Stop gracefully shuts down the daemon
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	currentStatus := d.GetStatus()
	if currentStatus == StatusStopped || currentStatus == StatusStopping {
		return nil
	}
	d.status.Store(StatusStopping)
	slog.Info("Stopping control panel daemon")

	select {
	case <-d.stopChan:
	default:
		close(d.stopChan)
	}

	// Stop components in reverse order
	if d.configWatcher != nil {
		if err := d.configWatcher.Stop(ctx); err != nil {
			slog.Error("Failed to stop config watcher", logfields.Error(err))
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(ctx); err != nil {
			slog.Error("Failed to stop scheduler", logfields.Error(err))
		}
	}
	if d.httpServer != nil {
		if err := d.httpServer.Stop(ctx); err != nil {
			slog.Error("Failed to stop HTTP server", logfields.Error(err))
		}
	}
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			slog.Error("Failed to close event publisher", logfields.Error(err))
		}
	}
	if d.eventStore != nil {
		if err := d.eventStore.Close(); err != nil {
			slog.Error("Failed to close event store", logfields.Error(err))
		}
	}

	d.status.Store(StatusStopped)
	slog.Info("Control panel daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return nil
}

// GetStatus returns the current daemon status
func (d *Daemon) GetStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// GetStartTime returns the daemon start time
func (d *Daemon) GetStartTime() time.Time {
	return d.startTime
}

// GetConfig returns the active configuration.
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// ReloadConfig applies a changed configuration to the running daemon.
// Endpoint URLs take effect immediately; listen port changes need a restart.
func (d *Daemon) ReloadConfig(_ context.Context, newConfig *config.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	old := d.config
	if newConfig.Server.DashboardPort != old.Server.DashboardPort ||
		newConfig.Server.AdminPort != old.Server.AdminPort {
		slog.Warn("Listen port changes require a daemon restart")
	}

	if newConfig.Services.Engine.BaseURL != old.Services.Engine.BaseURL {
		d.engine.SetBaseURL(newConfig.Services.Engine.BaseURL)
		slog.Info("engine endpoint updated", logfields.Endpoint(newConfig.Services.Engine.BaseURL))
	}
	if newConfig.Services.Flowise.BaseURL != old.Services.Flowise.BaseURL {
		d.flowise.SetBaseURL(newConfig.Services.Flowise.BaseURL)
		slog.Info("flowise endpoint updated", logfields.Endpoint(newConfig.Services.Flowise.BaseURL))
	}
	if newConfig.Services.LLM.BaseURL != old.Services.LLM.BaseURL {
		d.llm.SetBaseURL(newConfig.Services.LLM.BaseURL)
		slog.Info("llm endpoint updated", logfields.Endpoint(newConfig.Services.LLM.BaseURL))
	}

	if newConfig.Polling.Interval != old.Polling.Interval {
		slog.Warn("Polling interval changes require a daemon restart")
	}

	if newConfig.Retry != old.Retry {
		d.applyRetryPolicy(retry.FromConfig(newConfig.Retry))
		slog.Info("retry policy updated")
	}

	d.config = newConfig
	return nil
}
