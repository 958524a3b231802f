// Package errors provides error handling for kgbridge.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints
//   - Marker-based classification that survives wrapping
//
// Usage:
//
//	// Wrap with context
//	if err := store.UpsertNode(ctx, key); err != nil {
//	    return errors.Wrapf(err, "upsert node %s", key)
//	}
//
//	// Classify without changing the message
//	return errors.Mark(errors.Newf("unknown reasoner %q", token), errors.ErrReasonerSelection)
//
//	// Check the class
//	if errors.Is(err, errors.ErrParse) {
//	    // respond with 400
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Common sentinel errors for use across kgbridge.
// Use these with errors.Is() for type-safe error checking.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrServiceUnavailable indicates a required service is not available
	ErrServiceUnavailable = New("service unavailable")
)

// Mapping and inference failure classes. Attach them with Mark so the
// message stays the one written at the failure site.
var (
	// ErrParse indicates a payload that is malformed for its detected syntax
	ErrParse = New("rdf parse error")

	// ErrReasonerSelection indicates an unknown reasoner token, or CUSTOM without rules
	ErrReasonerSelection = New("reasoner selection error")

	// ErrRuleSyntax indicates rule text the rule parser rejected
	ErrRuleSyntax = New("rule syntax error")

	// ErrGraphStore indicates a failed round trip to the graph store
	ErrGraphStore = New("graph store error")

	// ErrValidation indicates missing or inconsistent request fields
	ErrValidation = New("validation error")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsClientError reports whether err was caused by the caller's input
// rather than by the store or the process.
func IsClientError(err error) bool {
	return err != nil && IsAny(err,
		ErrInvalidRequest, ErrParse, ErrReasonerSelection, ErrRuleSyntax, ErrValidation)
}

// NewValidationError creates a validation error with a formatted message
func NewValidationError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrValidation)
}

// NewReasonerSelectionError creates a reasoner selection error with a formatted message
func NewReasonerSelectionError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrReasonerSelection)
}

// WrapParse classifies err as a parse failure with context
func WrapParse(err error, context string) error {
	return Mark(Wrap(err, context), ErrParse)
}

// WrapRuleSyntax classifies err as a rule syntax failure with context
func WrapRuleSyntax(err error, context string) error {
	return Mark(Wrap(err, context), ErrRuleSyntax)
}

// WrapGraphStore classifies err as a store failure with context
func WrapGraphStore(err error, context string) error {
	if err == nil {
		return nil
	}
	return Mark(Wrap(err, context), ErrGraphStore)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}
