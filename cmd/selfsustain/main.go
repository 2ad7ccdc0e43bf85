package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/blobb999/selfsustain/internal/config"
	"github.com/blobb999/selfsustain/internal/daemon"
	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/stack"
	"github.com/blobb999/selfsustain/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"panel.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct{} `cmd:"" help:"Run the control panel daemon (dashboard + admin servers)"`

	Setup struct{} `cmd:"" help:"Build and pull the container stack images"`

	Start struct{} `cmd:"" help:"Start the container stack and wait until it is healthy"`

	Stop struct{} `cmd:"" help:"Stop the container stack"`

	Status struct{} `cmd:"" help:"Show container and component health status"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Write a default configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	adapter := errors.NewCLIErrorAdapter(CLI.Verbose, logger)

	var err error
	switch ctx.Command() {
	case "serve":
		err = runServe()
	case "setup":
		err = runStackCommand(func(m *stack.Manager, ctx context.Context) error { return m.Setup(ctx) })
	case "start":
		err = runStackCommand(func(m *stack.Manager, ctx context.Context) error { return m.Start(ctx) })
	case "stop":
		err = runStackCommand(func(m *stack.Manager, ctx context.Context) error { return m.Stop(ctx) })
	case "status":
		err = runStackCommand(func(m *stack.Manager, ctx context.Context) error { return m.Status(ctx) })
	case "init":
		err = runInit()
	case "version":
		fmt.Printf("selfsustain %s (built %s, commit %s)\n",
			version.Version, version.BuildTime, version.GitCommit)
	default:
		err = fmt.Errorf("unknown command: %s", ctx.Command())
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, adapter.FormatError(err))
		os.Exit(adapter.ExitCodeFor(err))
	}
}

// runServe runs the daemon until a shutdown signal arrives.
func runServe() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.NewDaemonWithConfigFile(cfg, CLI.Config)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	slog.Info("Daemon started, waiting for shutdown signal...")

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("daemon error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := d.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	return nil
}

// runStackCommand loads configuration and runs one stack lifecycle step.
func runStackCommand(step func(*stack.Manager, context.Context) error) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return step(stack.NewManager(cfg), ctx)
}

func runInit() error {
	if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", CLI.Config)
	return nil
}
