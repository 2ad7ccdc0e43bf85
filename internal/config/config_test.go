package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
services:
  flowise:
    base_url: http://flowise:3000
polling:
  interval: 5s
  probe_timeout: 2s
  window_size: 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, "http://flowise:3000", cfg.Services.Flowise.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Polling.Interval.Std())
	assert.Equal(t, 30, cfg.Polling.WindowSize)

	// Untouched defaults survive a partial file
	assert.Equal(t, DefaultEngineURL, cfg.Services.Engine.BaseURL)
	assert.Equal(t, DefaultDashboardPort, cfg.Server.DashboardPort)
	assert.Equal(t, "phi3:mini", cfg.Chat.DefaultModel)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
polling:
  intervall: 5s
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intervall")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestEnvOverridesEndpoints(t *testing.T) {
	t.Setenv(EnvFlowiseURL, "http://override:3100")
	t.Setenv(EnvOllamaHost, "http://ollama-host:11434")

	path := writeConfig(t, "server:\n  dashboard_port: 8080\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://override:3100", cfg.Services.Flowise.BaseURL)
	assert.Equal(t, "http://ollama-host:11434", cfg.Services.LLM.BaseURL)
}

func TestEnvLLMBaseURLWinsOverOllamaHost(t *testing.T) {
	t.Setenv(EnvLLMURL, "http://primary:11434")
	t.Setenv(EnvOllamaHost, "http://secondary:11434")

	cfg := Default()
	applyEnvOverrides(cfg)
	assert.Equal(t, "http://primary:11434", cfg.Services.LLM.BaseURL)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port collision", func(c *Config) { c.Server.AdminPort = c.Server.DashboardPort }, "must differ"},
		{"empty endpoint", func(c *Config) { c.Services.Engine.BaseURL = "" }, "base_url is required"},
		{"relative endpoint", func(c *Config) { c.Services.LLM.BaseURL = "localhost:11434" }, "absolute"},
		{"interval too short", func(c *Config) { c.Polling.Interval = Duration(500 * time.Millisecond) }, "at least 1s"},
		{"probe timeout too long", func(c *Config) { c.Polling.ProbeTimeout = c.Polling.Interval }, "shorter than"},
		{"zero window", func(c *Config) { c.Polling.WindowSize = 0 }, "window_size"},
		{"temperature range", func(c *Config) { c.Chat.Temperature = 3.5 }, "temperature"},
		{"store without path", func(c *Config) { c.EventStore.Path = "" }, "event_store.path"},
		{"events without url", func(c *Config) { c.Events.Enabled = true; c.Events.NATSURL = "" }, "nats_url"},
		{"bad backoff", func(c *Config) { c.Retry.Backoff = "quadratic" }, "backoff"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Init(path, false))

	// Second init without force must refuse
	err := Init(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Services.Engine.BaseURL, cfg.Services.Engine.BaseURL)
}

func TestAPIKeyResolvesFromEnv(t *testing.T) {
	t.Setenv("FLOWISE_API_KEY", "secret-key")
	ep := ServiceEndpoint{BaseURL: DefaultFlowiseURL, APIKeyEnv: "FLOWISE_API_KEY"}
	assert.Equal(t, "secret-key", ep.APIKey())
	assert.Empty(t, ServiceEndpoint{}.APIKey())
}
