// Package swerrors defines the error taxonomy from spec.md §7 as typed
// sentinel kinds so callers can discriminate with errors.Is/errors.As
// instead of matching on message text.
package swerrors

import (
	"errors"
	"fmt"
)

// Kind is one of the closed error classes from spec.md §7.
type Kind string

const (
	// InsufficientData is surfaced in-band as the DATA_INSUFFICIENT signal;
	// never fatal to the pipeline.
	InsufficientData Kind = "InsufficientData"
	// IncompatibleVersions is fatal at orchestration entry; evaluation
	// never begins.
	IncompatibleVersions Kind = "IncompatibleVersions"
	// SchemaMissing is raised during migration-ensure when the base table
	// is absent.
	SchemaMissing Kind = "SchemaMissing"
	// InvariantViolation is a bug class: an allowed-transition graph
	// violation or a state-attrs key outside the closed set. Must abort,
	// never silently degrade.
	InvariantViolation Kind = "InvariantViolation"
	// StorageConflict is not actually an error condition: conflicts on
	// (ticker, date) resolve via the per-column-group UPSERT discipline.
	// The kind exists so storage layers can tag a resolved-conflict event
	// for logging/metrics without treating it as a failure.
	StorageConflict Kind = "StorageConflict"
)

// Error is a taxonomy-tagged error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, swerrors.InsufficientData) style matching
// against a bare Kind value by wrapping it as a sentinel comparison target.
func (e *Error) Is(target error) bool {
	k, ok := target.(*kindSentinel)
	return ok && e.Kind == k.kind
}

type kindSentinel struct{ kind Kind }

func (k *kindSentinel) Error() string { return string(k.kind) }

// Sentinel returns a comparable error value for a given Kind, suitable for
// errors.Is(err, swerrors.Sentinel(swerrors.IncompatibleVersions)).
func Sentinel(k Kind) error { return &kindSentinel{kind: k} }

// New creates a taxonomy error with no wrapped cause.
func New(k Kind, msg string) error {
	return &Error{Kind: k, Msg: msg}
}

// Wrap creates a taxonomy error wrapping an underlying cause.
func Wrap(k Kind, msg string, err error) error {
	return &Error{Kind: k, Msg: msg, Err: err}
}

// KindOf extracts the Kind of err, if it (or something it wraps) is a
// *Error. Returns ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
