package executor

import (
	"fmt"
)

// AllocationError occurs when the engine cannot provide a string buffer.
// Allocation failures are fatal to the operation that needed the buffer.
type AllocationError struct {
	Size uint32
	Err  error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("failed to allocate %d bytes of engine memory: %v", e.Size, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}

// CallError occurs when a foreign function invocation fails.
type CallError struct {
	Function string
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("engine call '%s' failed: %v", e.Function, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// ArgumentError occurs when an argument kind cannot cross the foreign
// boundary. Only integer primitives and strings are marshalable.
type ArgumentError struct {
	Function string
	Position int
	Value    any
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("unsupported argument type %T at position %d of engine call '%s'",
		e.Value, e.Position, e.Function)
}

// ExtractError occurs when a result buffer cannot be read back or released.
type ExtractError struct {
	Address uint32
	Err     error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("failed to extract result at address %d: %v", e.Address, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// CreateEngineError occurs when engine construction returns a null handle.
type CreateEngineError struct{}

func (e *CreateEngineError) Error() string {
	return "engine construction returned a null handle"
}
