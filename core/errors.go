package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSnapshot is returned by StateStore.Restore when nothing has been
// persisted yet. Not an error condition for startup; the Mind begins fresh.
var ErrNoSnapshot = errors.New("no snapshot persisted")

// TransientProviderError wraps a network or timeout failure from a model
// provider. Transient failures are retried once, then degraded to rule-based
// handling, never retried indefinitely.
type TransientProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *TransientProviderError) Error() string {
	return fmt.Sprintf("transient provider error (%s): %v", e.Provider, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *TransientProviderError) Unwrap() error { return e.Err }

// IsTransient reports whether err should be treated as retryable: an
// explicit TransientProviderError or a context deadline expiry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var tpe *TransientProviderError
	if errors.As(err, &tpe) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// CorruptStateError wraps a snapshot decode failure. Startup falls back to a
// fresh default schedule and logs loudly; it never crashes. Repeated
// occurrences across restarts trigger an explicit operator alert.
type CorruptStateError struct {
	Err error
}

// Error implements the error interface.
func (e *CorruptStateError) Error() string { return fmt.Sprintf("corrupt persisted state: %v", e.Err) }

// Unwrap exposes the underlying cause.
func (e *CorruptStateError) Unwrap() error { return e.Err }

// HandlerError records a failure inside a rule-based or LLM handler. Caught
// per-event; the dispatch loop continues with the next event.
type HandlerError struct {
	EventID string
	Err     error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler failed for event %s: %v", e.EventID, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *HandlerError) Unwrap() error { return e.Err }
