package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks the configuration for values that would make the daemon
// misbehave at runtime. It returns the first problem found.
func (c *Config) Validate() error {
	if err := validatePort("server.dashboard_port", c.Server.DashboardPort); err != nil {
		return err
	}
	if err := validatePort("server.admin_port", c.Server.AdminPort); err != nil {
		return err
	}
	if c.Server.DashboardPort == c.Server.AdminPort {
		return fmt.Errorf("server.dashboard_port and server.admin_port must differ (both %d)", c.Server.AdminPort)
	}

	for _, ep := range []struct {
		name string
		ep   ServiceEndpoint
	}{
		{"services.engine", c.Services.Engine},
		{"services.flowise", c.Services.Flowise},
		{"services.llm", c.Services.LLM},
	} {
		if err := validateEndpoint(ep.name, ep.ep); err != nil {
			return err
		}
	}

	if c.Polling.Interval < Duration(time.Second) {
		return fmt.Errorf("polling.interval must be at least 1s, got %s", c.Polling.Interval)
	}
	if c.Polling.ProbeTimeout <= 0 {
		return fmt.Errorf("polling.probe_timeout must be positive, got %s", c.Polling.ProbeTimeout)
	}
	if c.Polling.ProbeTimeout >= c.Polling.Interval {
		return fmt.Errorf("polling.probe_timeout (%s) must be shorter than polling.interval (%s)",
			c.Polling.ProbeTimeout, c.Polling.Interval)
	}
	if c.Polling.WindowSize <= 0 {
		return fmt.Errorf("polling.window_size must be positive, got %d", c.Polling.WindowSize)
	}

	if c.Chat.HistoryLimit <= 0 {
		return fmt.Errorf("chat.history_limit must be positive, got %d", c.Chat.HistoryLimit)
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return fmt.Errorf("chat.temperature must be within [0,2], got %g", c.Chat.Temperature)
	}

	if c.EventStore.Enabled && c.EventStore.Path == "" {
		return fmt.Errorf("event_store.path is required when event_store.enabled is true")
	}
	if c.Events.Enabled {
		if c.Events.NATSURL == "" {
			return fmt.Errorf("events.nats_url is required when events.enabled is true")
		}
		if c.Events.Subject == "" {
			return fmt.Errorf("events.subject is required when events.enabled is true")
		}
	}

	if c.Retry.Backoff != "" && NormalizeRetryBackoff(string(c.Retry.Backoff)) == "" {
		return fmt.Errorf("retry.backoff must be one of fixed|linear|exponential, got %q", c.Retry.Backoff)
	}

	return nil
}

func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be within [1,65535], got %d", field, port)
	}
	return nil
}

func validateEndpoint(field string, ep ServiceEndpoint) error {
	if ep.BaseURL == "" {
		return fmt.Errorf("%s.base_url is required", field)
	}
	u, err := url.Parse(ep.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s.base_url must be an absolute http(s) URL, got %q", field, ep.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s.base_url scheme must be http or https, got %q", field, u.Scheme)
	}
	if ep.Timeout < 0 {
		return fmt.Errorf("%s.timeout cannot be negative", field)
	}
	return nil
}
