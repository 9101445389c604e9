package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the dispatch taxonomy. Typed errors below unwrap to these.
var (
	ErrUnknownTool     = errors.New("unknown tool")
	ErrDuplicateTool   = errors.New("duplicate tool")
	ErrMissingArgument = errors.New("missing required argument")
	ErrTypeMismatch    = errors.New("argument type mismatch")
	ErrHandlerFailure  = errors.New("tool execution failed")
	ErrTimeout         = errors.New("tool execution timed out")
	ErrEmptyContent    = errors.New("envelope content must not be empty")
	ErrRegistrySealed  = errors.New("registry is sealed")
)

// UnknownToolError is returned when no tool is registered under Name.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

func (e *UnknownToolError) Unwrap() error { return ErrUnknownTool }

// DuplicateToolError is returned when a second tool registers an existing name.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

func (e *DuplicateToolError) Unwrap() error { return ErrDuplicateTool }

// MissingArgumentError names a required argument absent from the request.
type MissingArgumentError struct {
	Name string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("missing required argument: %s", e.Name)
}

func (e *MissingArgumentError) Unwrap() error { return ErrMissingArgument }

// TypeMismatchError reports an argument whose runtime type differs from its declaration.
type TypeMismatchError struct {
	Name     string
	Expected ArgType
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("invalid type for %s: expected %s, got %s", e.Name, e.Expected, e.Actual)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// HandlerFailureError wraps any fault raised while a handler executes.
// Panicked is set when the fault was a recovered panic.
type HandlerFailureError struct {
	Tool     string
	Err      error
	Panicked bool
}

func (e *HandlerFailureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("tool %s failed", e.Tool)
	}
	return e.Err.Error()
}

func (e *HandlerFailureError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrHandlerFailure}
	}
	return []error{ErrHandlerFailure, e.Err}
}

// TimeoutError is returned when a handler does not finish within its deadline.
type TimeoutError struct {
	Tool string
	// Limit is the configured duration as a string, e.g. "30s".
	Limit string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("tool %s timed out after %s", e.Tool, e.Limit)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }
