package domain

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy for the pipeline.
type ErrorCategory string

const (
	// ErrorFeatureDisabled indicates the capability's flag is off or its
	// engine failed to start; callers should treat it as service unavailable.
	ErrorFeatureDisabled ErrorCategory = "feature_disabled"

	// ErrorNotInitialized indicates an ordering bug: a registry or engine was
	// used before successful initialization.
	ErrorNotInitialized ErrorCategory = "not_initialized"

	// ErrorInputInvalid indicates a caller-correctable problem: missing file,
	// missing required data, unsupported language.
	ErrorInputInvalid ErrorCategory = "input_invalid"

	// ErrorEngineFailure indicates the underlying recognition or model call
	// failed at transport/runtime level.
	ErrorEngineFailure ErrorCategory = "engine_failure"
)

// EngineError wraps engine failures with normalized categorization.
type EngineError struct {
	Category   ErrorCategory
	Engine     string
	Message    string
	Underlying error
}

func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("engine %s [%s]: %s: %v", e.Engine, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("engine %s [%s]: %s", e.Engine, e.Category, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// NewEngineError creates a categorized engine error.
func NewEngineError(category ErrorCategory, engine, message string, underlying error) *EngineError {
	return &EngineError{
		Category:   category,
		Engine:     engine,
		Message:    message,
		Underlying: underlying,
	}
}

// Category extracts the error category, defaulting to engine_failure.
func Category(err error) ErrorCategory {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Category
	}
	return ErrorEngineFailure
}

// Sentinel errors for common cases.
var (
	ErrNotInitialized      = errors.New("registry not initialized")
	ErrFeatureDisabled     = errors.New("feature disabled")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)
