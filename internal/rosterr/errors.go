// Package rosterr defines the typed error vocabulary the engine returns to
// its CLI and Store callers, grounded on the shape of an AppError (code,
// message, details) without the i18n/HTTP-status machinery an HTTP API
// would need.
package rosterr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the engine's recognized failure categories. Each
// Kind maps to one of the CLI's exit codes (see cmd/roster-planner).
type Kind string

const (
	// KindInput covers malformed or missing operator input: an unparseable
	// date range, a catalog entry referencing an unknown team, a rotation
	// file that fails schema validation.
	KindInput Kind = "input_error"

	// KindLockConflict covers two lock records disagreeing for the same
	// employee/day (the Lock Consolidator's precedence rule failing).
	KindLockConflict Kind = "lock_conflict"

	// KindInfeasible covers a solver run that completed and proved no
	// feasible assignment exists.
	KindInfeasible Kind = "infeasible"

	// KindSolverTimeout covers a solver run that hit its time limit without
	// either a feasible solution or a proof of infeasibility.
	KindSolverTimeout Kind = "solver_timeout"

	// KindValidation covers the Validator's independent pass finding a
	// violated invariant in a solver-produced (or operator-supplied) roster.
	KindValidation Kind = "validation_error"

	// KindReplacerFailure covers the Springer Replacer being unable to find
	// any eligible replacement for an absence.
	KindReplacerFailure Kind = "replacer_failure"
)

// EngineError is the error type returned by every roster operation that can
// fail in a way the caller should distinguish.
type EngineError struct {
	Kind    Kind
	Message string
	Details map[string]string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// WithDetails attaches structured detail fields (e.g. the offending
// employee ID, the conflicting lock source) for diagnostic rendering.
func (e *EngineError) WithDetails(details map[string]string) *EngineError {
	e.Details = details
	return e
}

func New(kind Kind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message}
}

func Wrap(err error, kind Kind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message, Err: err}
}

func Input(message string) *EngineError {
	return New(KindInput, message)
}

func LockConflict(message string) *EngineError {
	return New(KindLockConflict, message)
}

func Infeasible(message string) *EngineError {
	return New(KindInfeasible, message)
}

func SolverTimeout(message string) *EngineError {
	return New(KindSolverTimeout, message)
}

func Validation(message string) *EngineError {
	return New(KindValidation, message)
}

func ReplacerFailure(message string) *EngineError {
	return New(KindReplacerFailure, message)
}

// Is reports whether err is an EngineError of the given Kind.
func Is(err error, kind Kind) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind == kind
	}
	return false
}

// As attempts to convert err to an *EngineError.
func As(err error, target **EngineError) bool {
	return errors.As(err, target)
}
