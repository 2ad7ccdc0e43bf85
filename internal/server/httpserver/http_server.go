// Package httpserver wires the dashboard and admin HTTP servers.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/blobb999/selfsustain/internal/config"
	derrors "github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/metrics"
	"github.com/blobb999/selfsustain/internal/server/handlers"
	smw "github.com/blobb999/selfsustain/internal/server/middleware"
)

// Server manages the dashboard and admin HTTP endpoints.
type Server struct {
	dashboardServer *http.Server
	adminServer     *http.Server
	cfg             *config.Config
	opts            Options
	errorAdapter    *derrors.HTTPErrorAdapter

	// Handler modules
	pageHandlers       *handlers.DashboardPageHandlers
	statusHandlers     *handlers.StatusHandlers
	chatHandlers       *handlers.ChatHandlers
	flowiseHandlers    *handlers.FlowiseHandlers
	learningHandlers   *handlers.LearningHandlers
	systemHandlers     *handlers.SystemHandlers
	llmHandlers        *handlers.LLMHandlers
	configHandlers     *handlers.ConfigHandlers
	monitoringHandlers *handlers.MonitoringHandlers

	// middleware chain
	mchain func(http.Handler) http.Handler
}

// New constructs the HTTP server wiring.
func New(cfg *config.Config, opts Options) *Server {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now()
	}

	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
	}

	s.pageHandlers = handlers.NewDashboardPageHandlers(opts.Title)
	s.statusHandlers = handlers.NewStatusHandlers(opts.Monitor, opts.Uptime)
	s.chatHandlers = handlers.NewChatHandlers(opts.ChatStore, opts.LLM, opts.Flowise, opts.ChatConfig, opts.Recorder, opts.Events)
	s.flowiseHandlers = handlers.NewFlowiseHandlers(opts.Flowise)
	s.learningHandlers = handlers.NewLearningHandlers(opts.Engine, opts.Events)
	s.systemHandlers = handlers.NewSystemHandlers(opts.Engine)
	s.llmHandlers = handlers.NewLLMHandlers(opts.LLM)
	s.configHandlers = handlers.NewConfigHandlers(opts.Engine, opts.Flowise, opts.LLM)
	s.monitoringHandlers = handlers.NewMonitoringHandlers(opts.Monitor, opts.StartTime)

	s.mchain = smw.Chain(slog.Default(), s.errorAdapter, opts.Recorder)

	return s
}

// Start binds and starts both HTTP servers. Ports are pre-bound so startup
// fails fast with one aggregate error instead of partial initialization.
func (s *Server) Start(ctx context.Context) error {
	type preBind struct {
		name string
		port int
		ln   net.Listener
	}
	binds := []preBind{
		{name: "dashboard", port: s.cfg.Server.DashboardPort},
		{name: "admin", port: s.cfg.Server.AdminPort},
	}

	var bindErrs []error
	lc := net.ListenConfig{}
	for i := range binds {
		addr := fmt.Sprintf(":%d", binds[i].port)
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s port %d: %w", binds[i].name, binds[i].port, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return fmt.Errorf("http startup failed: %w", errors.Join(bindErrs...))
	}

	if err := s.startDashboardServerWithListener(binds[0].ln); err != nil {
		return fmt.Errorf("failed to start dashboard server: %w", err)
	}
	if err := s.startAdminServerWithListener(binds[1].ln); err != nil {
		return fmt.Errorf("failed to start admin server: %w", err)
	}

	slog.Info("HTTP servers started",
		slog.Int("dashboard_port", s.cfg.Server.DashboardPort),
		slog.Int("admin_port", s.cfg.Server.AdminPort))
	return nil
}

// Stop gracefully shuts down both HTTP servers.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error

	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}
	if s.dashboardServer != nil {
		if err := s.dashboardServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("dashboard server shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	slog.Info("HTTP servers stopped")
	return nil
}

// timeouts returns configured server timeouts with sane fallbacks.
func (s *Server) timeouts() (read, write time.Duration) {
	read = s.cfg.Server.ReadTimeout.Std()
	if read <= 0 {
		read = 30 * time.Second
	}
	write = s.cfg.Server.WriteTimeout.Std()
	if write <= 0 {
		// Chat round trips can take a while on slow local models.
		write = 180 * time.Second
	}
	return read, write
}

// startServerWithListener launches an http.Server on a pre-bound listener.
func (s *Server) startServerWithListener(kind string, srv *http.Server, ln net.Listener) error {
	go func() {
		err := srv.Serve(ln)
		if err != nil && err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s server error", kind), "error", err)
		}
	}()
	return nil
}
