package httpserver

import (
	"net/http"
	"time"

	"github.com/blobb999/selfsustain/internal/chat"
	"github.com/blobb999/selfsustain/internal/config"
	"github.com/blobb999/selfsustain/internal/eventstore"
	"github.com/blobb999/selfsustain/internal/metrics"
	"github.com/blobb999/selfsustain/internal/server/handlers"
)

// Options carries the collaborators the servers expose over HTTP.
type Options struct {
	// Monitor backs /api/status and readiness.
	Monitor interface {
		handlers.SnapshotProvider
		handlers.MonitorInterface
	}

	// Clients, all re-pointable at runtime via /api/config.
	Engine interface {
		handlers.EngineInterface
		handlers.SystemInterface
		handlers.Repointable
	}
	Flowise interface {
		handlers.FlowiseInterface
		handlers.Repointable
	}
	LLM interface {
		handlers.ChatCompleter
		handlers.ModelLister
		handlers.Repointable
	}

	// ChatStore holds session history.
	ChatStore *chat.Store

	// Optional collaborators.
	Events            eventstore.Store
	Uptime            handlers.UptimeProvider
	Recorder          metrics.Recorder
	PrometheusHandler http.Handler

	// StartTime feeds uptime reporting; zero means "now".
	StartTime time.Time

	// ChatConfig tunes default model and sampling.
	ChatConfig config.ChatConfig

	// Title is the dashboard page heading.
	Title string
}
