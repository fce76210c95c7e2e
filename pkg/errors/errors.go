// Package errors provides structured error handling for the loom reconciler.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindSchedule indicates work dropped or refused by a scheduler.
	KindSchedule
	// KindReconcile indicates a pass aborted while diffing the
	// work-in-progress tree.
	KindReconcile
	// KindConfig indicates an invalid configuration or input document.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindSchedule:
		return "schedule"
	case KindReconcile:
		return "reconcile"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// LoomError represents a structured error raised by the reconciler.
type LoomError struct {
	// Op is the operation that failed (e.g., "core.Renderer.run").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *LoomError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *LoomError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "idle.Loop.Run").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// BuildError represents a failure while rendering a component.
type BuildError struct {
	// Component is the name of the component function that failed.
	Component string
	// Path is the chain of fiber kinds from the root to the failing fiber.
	Path string
	// Recovered is the panic value (nil for regular errors).
	Recovered any
	// Err is the underlying error (nil for panics).
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *BuildError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("panic in %s render: %v", e.Component, e.Recovered)
	}
	if e.Err != nil {
		return fmt.Sprintf("error in %s render: %v", e.Component, e.Err)
	}
	return fmt.Sprintf("unknown error in %s render", e.Component)
}

func (e *BuildError) Unwrap() error {
	if err, ok := e.Recovered.(error); ok && e.Err == nil {
		return err
	}
	return e.Err
}

// Warning is a non-fatal diagnostic, emitted only in debug mode.
type Warning struct {
	// Op is the operation that produced the warning.
	Op string
	// Message describes the problem.
	Message string
}

func (w *Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Op, w.Message)
}

// ErrorHandler receives errors reported by the reconciler.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *LoomError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleBuildError is called when a component render fails.
	HandleBuildError(err *BuildError)
	// HandleWarning is called for debug diagnostics.
	HandleWarning(w *Warning)
}
