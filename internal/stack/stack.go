// Package stack sequences the container stack lifecycle: compose build and
// pull, start with a health wait, stop, and a combined status view.
package stack

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/blobb999/selfsustain/internal/config"
	"github.com/blobb999/selfsustain/internal/engine"
	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/flowise"
	"github.com/blobb999/selfsustain/internal/llm"
	"github.com/blobb999/selfsustain/internal/logfields"
	"github.com/blobb999/selfsustain/internal/retry"
)

// healthPollInterval is how often the start command re-probes the
// components while waiting for the stack to come up.
const healthPollInterval = 3 * time.Second

// ComponentHealth is one component's probe outcome in a status report.
type ComponentHealth struct {
	Name    string
	URL     string
	Healthy bool
	Detail  string
}

// Manager drives the compose lifecycle for the configured stack.
type Manager struct {
	cfg    *config.Config
	runner Runner
	out    io.Writer
}

// Option customizes a Manager.
type Option func(*Manager)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(m *Manager) { m.runner = r }
}

// WithOutput redirects human-readable progress output.
func WithOutput(w io.Writer) Option {
	return func(m *Manager) { m.out = w }
}

// NewManager creates a stack manager for the given configuration.
func NewManager(cfg *config.Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:    cfg,
		runner: ExecRunner{},
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// compose runs one docker compose subcommand against the configured project.
func (m *Manager) compose(ctx context.Context, args ...string) (string, error) {
	base := []string{"compose", "-f", m.cfg.Stack.ComposeFile, "-p", m.cfg.Stack.ProjectName}
	return m.runner.Run(ctx, "docker", append(base, args...)...)
}

// Setup prepares the stack: verifies docker is available, then builds and
// pulls the compose images.
func (m *Manager) Setup(ctx context.Context) error {
	if _, err := m.runner.Run(ctx, "docker", "version", "--format", "{{.Server.Version}}"); err != nil {
		return errors.StackError("docker-check", err).
			WithContext("hint", "is the docker daemon running?")
	}

	fmt.Fprintln(m.out, "Building stack images...")
	if out, err := m.compose(ctx, "build"); err != nil {
		return errors.StackError("compose-build", err).WithContext("output", out)
	}

	fmt.Fprintln(m.out, "Pulling stack images...")
	if out, err := m.compose(ctx, "pull", "--ignore-buildable"); err != nil {
		return errors.StackError("compose-pull", err).WithContext("output", out)
	}

	fmt.Fprintln(m.out, "Setup complete.")
	return nil
}

// Start brings the stack up and waits for the components to answer their
// health endpoints, then prints the access points.
func (m *Manager) Start(ctx context.Context) error {
	fmt.Fprintln(m.out, "Starting stack...")
	if out, err := m.compose(ctx, "up", "-d"); err != nil {
		return errors.StackError("compose-up", err).WithContext("output", out)
	}

	deadline := m.cfg.Stack.HealthDeadline.Std()
	if deadline <= 0 {
		deadline = 2 * time.Minute
	}
	if err := m.waitHealthy(ctx, deadline); err != nil {
		return err
	}

	fmt.Fprintln(m.out, "Stack is up.")
	for _, ap := range m.cfg.Stack.AccessPoints {
		fmt.Fprintf(m.out, "  %-12s %s\n", ap.Name, ap.URL)
	}
	return nil
}

// Stop takes the stack down.
func (m *Manager) Stop(ctx context.Context) error {
	fmt.Fprintln(m.out, "Stopping stack...")
	if out, err := m.compose(ctx, "down"); err != nil {
		return errors.StackError("compose-down", err).WithContext("output", out)
	}
	fmt.Fprintln(m.out, "Stack stopped.")
	return nil
}

// Status prints the compose process list and a one-shot health probe per
// component.
func (m *Manager) Status(ctx context.Context) error {
	out, err := m.compose(ctx, "ps")
	if err != nil {
		return errors.StackError("compose-ps", err).WithContext("output", out)
	}
	fmt.Fprintln(m.out, out)

	fmt.Fprintln(m.out, "\nComponent health:")
	for _, h := range m.Health(ctx) {
		state := "healthy"
		if !h.Healthy {
			state = "unhealthy"
		}
		fmt.Fprintf(m.out, "  %-12s %-10s %s", h.Name, state, h.URL)
		if h.Detail != "" {
			fmt.Fprintf(m.out, "  (%s)", h.Detail)
		}
		fmt.Fprintln(m.out)
	}
	return nil
}

// Health probes each configured component once.
func (m *Manager) Health(ctx context.Context) []ComponentHealth {
	policy := retry.FromConfig(m.cfg.Retry)
	engineClient := engine.NewClient(m.cfg.Services.Engine)
	engineClient.SetRetryPolicy(policy)
	flowiseClient := flowise.NewClient(m.cfg.Services.Flowise)
	flowiseClient.SetRetryPolicy(policy)
	llmClient := llm.NewClient(m.cfg.Services.LLM)
	llmClient.SetRetryPolicy(policy)

	results := []ComponentHealth{
		{Name: "engine", URL: m.cfg.Services.Engine.BaseURL},
		{Name: "flowise", URL: m.cfg.Services.Flowise.BaseURL},
		{Name: "llm", URL: m.cfg.Services.LLM.BaseURL},
	}

	if err := engineClient.Health(ctx); err != nil {
		results[0].Detail = err.Error()
	} else {
		results[0].Healthy = true
	}

	if status := flowiseClient.TestConnection(ctx); status.Online {
		results[1].Healthy = true
	} else {
		results[1].Detail = status.Message
	}

	if err := llmClient.Ping(ctx); err != nil {
		results[2].Detail = err.Error()
	} else {
		results[2].Healthy = true
	}

	return results
}

// waitHealthy polls the components until all answer or the deadline passes.
func (m *Manager) waitHealthy(ctx context.Context, deadline time.Duration) error {
	fmt.Fprintln(m.out, "Waiting for components to become healthy...")

	waitCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()

	for {
		healthy := true
		for _, h := range m.Health(waitCtx) {
			if !h.Healthy {
				healthy = false
				slog.Debug("component not healthy yet",
					logfields.Service(h.Name),
					logfields.Endpoint(h.URL))
			}
		}
		if healthy {
			return nil
		}

		select {
		case <-waitCtx.Done():
			return errors.StackError("health-wait", waitCtx.Err()).
				WithContext("deadline", deadline.String()).
				WithContext("hint", "some components did not become healthy; check docker compose logs")
		case <-ticker.C:
		}
	}
}
