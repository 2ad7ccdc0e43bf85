package httpserver

import (
	"net"
	"net/http"
	"time"
)

func (s *Server) startDashboardServerWithListener(ln net.Listener) error {
	mux := http.NewServeMux()

	// Server-rendered shell; everything below is the JSON API it polls.
	mux.HandleFunc("/", s.pageHandlers.HandleDashboard)

	mux.HandleFunc("/api/status", s.statusHandlers.HandleStatus)
	mux.HandleFunc("/api/chat", s.chatHandlers.HandleChat)
	mux.HandleFunc("/api/chat/session", s.chatHandlers.HandleNewSession)
	mux.HandleFunc("/api/config", s.configHandlers.HandleConfig)

	s.flowiseHandlers.Register(mux)
	s.learningHandlers.Register(mux)
	s.systemHandlers.Register(mux)
	s.llmHandlers.Register(mux)

	read, write := s.timeouts()
	s.dashboardServer = &http.Server{
		Handler:      s.mchain(mux),
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  120 * time.Second,
	}
	return s.startServerWithListener("dashboard", s.dashboardServer, ln)
}
