// Package errors provides a lightweight structured error type (PanelError)
// for category-based classification and retry semantics in HTTP adapters and CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a control panel error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"

	// External collaborator errors
	CategoryNetwork ErrorCategory = "network"
	CategoryEngine  ErrorCategory = "engine"
	CategoryFlowise ErrorCategory = "flowise"
	CategoryLLM     ErrorCategory = "llm"

	// Local infrastructure errors
	CategoryStore  ErrorCategory = "store"
	CategoryEvents ErrorCategory = "events"
	CategoryStack  ErrorCategory = "stack"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// PanelError is a structured error with category, retryability, and context
type PanelError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// Build returns the error itself so builder-style call sites read uniformly.
func (e *PanelError) Build() *PanelError {
	return e
}

// ContextFields carries structured context for PanelError
type ContextFields map[string]any

// Error implements the error interface
func (e *PanelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *PanelError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *PanelError) WithContext(key string, value any) *PanelError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithCause attaches an underlying cause to the error
func (e *PanelError) WithCause(err error) *PanelError {
	e.Cause = err
	return e
}

// New creates a new PanelError
func New(category ErrorCategory, severity ErrorSeverity, message string) *PanelError {
	return &PanelError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new PanelError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *PanelError {
	return &PanelError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// Retryable creates a new retryable PanelError
func Retryable(category ErrorCategory, severity ErrorSeverity, message string) *PanelError {
	return &PanelError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: true,
	}
}

// WrapRetryable creates a new retryable PanelError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *PanelError {
	return &PanelError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category, unwrapping
// as needed.
func IsCategory(err error, category ErrorCategory) bool {
	var pe *PanelError
	if stderrors.As(err, &pe) {
		return pe.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable, unwrapping as needed.
func IsRetryable(err error) bool {
	var pe *PanelError
	if stderrors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal
// if no PanelError is found in the chain.
func GetCategory(err error) ErrorCategory {
	var pe *PanelError
	if stderrors.As(err, &pe) {
		return pe.Category
	}
	return CategoryInternal
}
