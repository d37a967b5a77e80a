package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *EngineError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *EngineError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *EngineError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Corpus errors

func CorpusReadError(path string, cause error) *EngineError {
	return Wrap(cause, CategoryCorpus, SeverityFatal, "corpus file unreadable").
		WithContext("path", path)
}

func CorpusDecodeError(path string, cause error) *EngineError {
	return Wrap(cause, CategoryCorpus, SeverityFatal, "corpus file undecodable").
		WithContext("path", path)
}

// Output errors

func EmitError(operation string, cause error) *EngineError {
	return Wrap(cause, CategoryEmit, SeverityFatal, "content emission failed").
		WithContext("operation", operation)
}

func StateError(operation string, cause error) *EngineError {
	return Wrap(cause, CategoryState, SeverityError, "state store operation failed").
		WithContext("operation", operation)
}

func EventsError(subject string, cause error) *EngineError {
	return WrapRetryable(cause, CategoryEvents, SeverityWarning, "event publish failed").
		WithContext("subject", subject)
}
