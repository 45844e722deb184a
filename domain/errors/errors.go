// Package errors provides domain-specific error types for the skill engine.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	"fmt"
)

// CompileError reports that a skill source failed to parse or validate.
// It carries the underlying diagnostic and aborts the load pass that
// encountered it; the registry is left untouched.
type CompileError struct {
	Err   error
	Skill string
	Path  string
}

func (e *CompileError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("compile skill %q (%s): %v", e.Skill, e.Path, e.Err)
	}
	return fmt.Sprintf("compile skill %q: %v", e.Skill, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a call against a name absent from the registry.
// Recoverable: the skill may exist after the next load pass.
type NotFoundError struct {
	Skill string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("skill %q not found", e.Skill)
}

// InstantiationError reports that a compiled skill could not be bound to a
// fresh invocation context. Import resolution and linear-memory setup
// failures land here; they indicate a mismatch between the guest's
// expected imports and the host ABI, not a transient condition.
type InstantiationError struct {
	Err   error
	Skill string
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("instantiate skill %q: %v", e.Skill, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// TrapError reports that guest code faulted during invocation: invalid
// memory access outside a capability, an explicit abort, stack
// exhaustion, or a nonzero exit. Only the invocation is aborted; the
// host process is unaffected.
type TrapError struct {
	Err   error
	Skill string
}

func (e *TrapError) Error() string {
	return fmt.Sprintf("skill %q trapped: %v", e.Skill, e.Err)
}

func (e *TrapError) Unwrap() error {
	return e.Err
}
