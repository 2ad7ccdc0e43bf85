// Package config defines the control panel configuration: which external
// services to watch, how often to probe them, and where the dashboard and
// admin HTTP servers listen.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Services   ServicesConfig   `yaml:"services"`
	Polling    PollingConfig    `yaml:"polling"`
	Chat       ChatConfig       `yaml:"chat"`
	EventStore EventStoreConfig `yaml:"event_store"`
	Events     EventsConfig     `yaml:"events"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Retry      RetryConfig      `yaml:"retry"`
	Stack      StackConfig      `yaml:"stack"`
}

// ServerConfig holds listen ports and timeouts for both HTTP servers.
type ServerConfig struct {
	DashboardPort int      `yaml:"dashboard_port"`
	AdminPort     int      `yaml:"admin_port"`
	ReadTimeout   Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout  Duration `yaml:"write_timeout,omitempty"`
}

// ServicesConfig names the three external collaborators.
type ServicesConfig struct {
	Engine  ServiceEndpoint `yaml:"engine"`
	Flowise ServiceEndpoint `yaml:"flowise"`
	LLM     ServiceEndpoint `yaml:"llm"`
}

// ServiceEndpoint describes one HTTP collaborator.
// APIKeyEnv names an environment variable; the key itself never lives in YAML.
type ServiceEndpoint struct {
	BaseURL   string   `yaml:"base_url"`
	APIKeyEnv string   `yaml:"api_key_env,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty"`
}

// APIKey resolves the endpoint's API key from the environment, if configured.
func (e ServiceEndpoint) APIKey() string {
	if e.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(e.APIKeyEnv)
}

// PollingConfig controls the status probe cadence and the sample window
// backing the dashboard charts.
type PollingConfig struct {
	Interval     Duration `yaml:"interval"`
	ProbeTimeout Duration `yaml:"probe_timeout"`
	WindowSize   int      `yaml:"window_size"`
}

// ChatConfig controls the dashboard chat panel.
type ChatConfig struct {
	DefaultModel string  `yaml:"default_model"`
	HistoryLimit int     `yaml:"history_limit"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
}

// EventStoreConfig configures the sqlite-backed event log.
type EventStoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EventsConfig configures optional NATS publishing of status transitions.
type EventsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	NATSURL  string `yaml:"nats_url"`
	Subject  string `yaml:"subject"`
	KVBucket string `yaml:"kv_bucket"`
}

// MetricsConfig configures Prometheus exposition on the admin server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RetryConfig holds raw retry/backoff settings; internal/retry turns them
// into a validated policy.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff,omitempty"`
	Initial    Duration         `yaml:"initial,omitempty"`
	Max        Duration         `yaml:"max,omitempty"`
	MaxRetries int              `yaml:"max_retries,omitempty"`
}

// StackConfig drives the compose lifecycle commands (setup/start/stop).
type StackConfig struct {
	ComposeFile    string        `yaml:"compose_file"`
	ProjectName    string        `yaml:"project_name"`
	HealthDeadline Duration      `yaml:"health_deadline"`
	AccessPoints   []AccessPoint `yaml:"access_points,omitempty"`
}

// AccessPoint is a fixed URL printed after a successful start.
type AccessPoint struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load loads configuration from the specified file.
// Unknown YAML keys are rejected so typos surface immediately.
func Load(configPath string) (*Config, error) {
	// Load .env file if present; process env always wins.
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Init writes a default configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
