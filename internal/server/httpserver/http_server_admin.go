package httpserver

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/blobb999/selfsustain/internal/server/responses"
	"github.com/blobb999/selfsustain/internal/version"
)

func (s *Server) startAdminServerWithListener(ln net.Listener) error {
	mux := http.NewServeMux()

	// Health check endpoint plus Kubernetes-style aliases
	mux.HandleFunc("/health", s.monitoringHandlers.HandleHealthCheck)
	mux.HandleFunc("/healthz", s.monitoringHandlers.HandleHealthCheck)
	// Readiness: only ready once the first probe cycle has completed
	mux.HandleFunc("/ready", s.monitoringHandlers.HandleReadiness)
	mux.HandleFunc("/readyz", s.monitoringHandlers.HandleReadiness)

	// Metrics endpoint
	if s.cfg.Metrics.Enabled && s.opts.PrometheusHandler != nil {
		path := s.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, s.opts.PrometheusHandler)
	}

	// Administrative endpoints
	mux.HandleFunc("/status", s.statusHandlers.HandleStatus)
	mux.HandleFunc("/api/daemon/status", s.handleDaemonStatus)
	mux.HandleFunc("/api/daemon/version", s.handleVersion)

	s.adminServer = &http.Server{
		Handler:      s.mchain(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s.startServerWithListener("admin", s.adminServer, ln)
}

func (s *Server) handleDaemonStatus(w http.ResponseWriter, _ *http.Request) {
	status := "running"
	ready := s.opts.Monitor != nil && s.opts.Monitor.Ready()
	if !ready {
		status = "starting"
	}
	resp := &responses.DaemonStatusResponse{
		Status:    status,
		Uptime:    time.Since(s.opts.StartTime).Seconds(),
		StartTime: s.opts.StartTime,
		Ready:     ready,
	}
	writeAdminJSON(w, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeAdminJSON(w, map[string]string{
		"version":    version.Version,
		"build_time": version.BuildTime,
		"git_commit": version.GitCommit,
	})
}

func writeAdminJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
