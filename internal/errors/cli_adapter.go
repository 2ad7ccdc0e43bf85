package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI commands.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	var pe *PanelError
	if errors.As(err, &pe) {
		return a.exitCodeFromPanel(pe)
	}

	return 1
}

// exitCodeFromPanel maps PanelError categories to exit codes.
func (a *CLIErrorAdapter) exitCodeFromPanel(err *PanelError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryAuth:
		return 5 // Auth error
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryNetwork, CategoryEngine, CategoryFlowise, CategoryLLM:
		return 8 // External system error
	case CategoryInternal:
		return 10 // Internal error
	case CategoryStack, CategoryStore, CategoryEvents:
		return 11 // Local infrastructure error
	case CategoryDaemon, CategoryRuntime:
		return 12 // Runtime error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var pe *PanelError
	if errors.As(err, &pe) {
		if a.verbose {
			return pe.Error()
		}
		switch pe.Category {
		case CategoryConfig, CategoryValidation, CategoryAuth:
			return pe.Message
		default:
			return fmt.Sprintf("%s: %s", pe.Category, pe.Message)
		}
	}

	return fmt.Sprintf("Error: %v", err)
}

// HandleError processes an error and exits the program with the appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	a.logger.Error(message)
	fmt.Fprintln(os.Stderr, message)
	os.Exit(exitCode)
}
