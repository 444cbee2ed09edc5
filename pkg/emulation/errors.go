package emulation

import (
	"fmt"
)

// EngineFailedError occurs when the engine marks a whole response as failed
// (top-level `fail: true`), as opposed to reporting an emulation outcome.
type EngineFailedError struct {
	Message string
}

func (e *EngineFailedError) Error() string {
	if e.Message == "" {
		return "engine reported failure without a message"
	}
	return fmt.Sprintf("engine reported failure: %s", e.Message)
}

// ResponseParseError occurs when an engine response payload is not valid JSON
// or does not match any known response shape.
type ResponseParseError struct {
	Operation string
	Err       error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response: %v", e.Operation, e.Err)
}

func (e *ResponseParseError) Unwrap() error {
	return e.Err
}

// UnknownVerbosityError occurs when a verbosity name has no engine level.
type UnknownVerbosityError struct {
	Name string
}

func (e *UnknownVerbosityError) Error() string {
	return fmt.Sprintf("unknown verbosity '%s' (must be one of: short, full, full_location, full_location_stack)", e.Name)
}
