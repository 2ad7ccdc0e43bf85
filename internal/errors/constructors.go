package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *PanelError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *PanelError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationError(message string) *PanelError {
	return New(CategoryValidation, SeverityWarning, message)
}

func ValidationFailed(field, reason string) *PanelError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// External collaborator errors

func NetworkError(message string) *PanelError {
	return Retryable(CategoryNetwork, SeverityWarning, message)
}

func EngineError(message string) *PanelError {
	return New(CategoryEngine, SeverityError, message)
}

func FlowiseError(message string) *PanelError {
	return New(CategoryFlowise, SeverityError, message)
}

func LLMError(message string) *PanelError {
	return New(CategoryLLM, SeverityError, message)
}

func ServiceOffline(service string, cause error) *PanelError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "service unreachable").
		WithContext("service", service)
}

// Local infrastructure errors

func StoreError(operation string, cause error) *PanelError {
	return Wrap(cause, CategoryStore, SeverityError, "event store operation failed").
		WithContext("operation", operation)
}

func StackError(step string, cause error) *PanelError {
	return Wrap(cause, CategoryStack, SeverityFatal, "stack lifecycle step failed").
		WithContext("step", step)
}

func DaemonError(message string) *PanelError {
	return New(CategoryDaemon, SeverityError, message)
}

func NotFound(what, id string) *PanelError {
	return New(CategoryValidation, SeverityWarning, what+" not found").
		WithContext("id", id)
}

// Internal errors

func InternalError(message string, cause error) *PanelError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}

// WrapError wraps an existing error with a new PanelError at error severity
func WrapError(err error, category ErrorCategory, message string) *PanelError {
	return &PanelError{
		Category:  category,
		Severity:  SeverityError,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}
