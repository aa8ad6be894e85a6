// models/errors.go
package models

import "fmt"

// ValidationError — caller input fails a local precondition (wager below
// minimum, missing choice, join-by-creator). Never reaches the network.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// PreconditionError — a locally cached fact (balance, allowance, phase, no
// attached session) says the remote call would fail. The chain stays the
// final authority; this is only an early exit.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

func NewPreconditionError(format string, args ...any) *PreconditionError {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// TransactionError — a user-initiated submission or its confirmation failed.
// Carries the provider's message verbatim plus a stable fallback string for
// display. Never mutates tracker state.
type TransactionError struct {
	Op       string // "create", "join", "cancel", "approve"
	Fallback string // e.g. "Failed to create game"
	Err      error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Fallback, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// SyncError — a background poll or event-triggered refetch failed. Contained
// inside the tracker: logged, retried next cycle, never user-facing.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
