package mirror

import (
	"errors"
	"fmt"
)

// Code categorizes mirror errors.
type Code string

const (
	// CodeLookupMiss indicates a requested key, column, or position has
	// no corresponding entry. Never silently defaulted.
	CodeLookupMiss Code = "LOOKUP_MISS"

	// CodeArityMismatch indicates an operation required matching row or
	// key arity and did not get it.
	CodeArityMismatch Code = "ARITY_MISMATCH"

	// CodeBackingFailure wraps a failure from the backing store. The
	// mirror applies no local mutation before this point in any
	// operation.
	CodeBackingFailure Code = "BACKING_FAILURE"

	// CodeStaleKey indicates a predicate-matched backing row whose
	// derived key is absent from the local index: the mirror is out of
	// date relative to the store. Not auto-healed; call Load to
	// resynchronize.
	CodeStaleKey Code = "STALE_KEY"

	// CodeDuplicateKey indicates an insert or rekey would give two
	// cached rows the same key.
	CodeDuplicateKey Code = "DUPLICATE_KEY"

	// CodeNotLoaded indicates an operation before the first Load.
	CodeNotLoaded Code = "NOT_LOADED"
)

// Error is a structured mirror error with a code for programmatic
// handling and enough context to diagnose without a debugger.
type Error struct {
	Code    Code
	Message string

	// Table identifies the mirrored table.
	Table string

	// Key renders the affected key, when one is involved.
	Key string

	// Err is the underlying cause (backing driver error, row error).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Table != "" {
		msg += fmt.Sprintf(" (table=%s", e.Table)
		if e.Key != "" {
			msg += fmt.Sprintf(", key=%s", e.Key)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is/As chains, so a
// caller can still match the raw driver error under a BACKING_FAILURE.
func (e *Error) Unwrap() error { return e.Err }

// codeIs reports whether err is a mirror Error with the given code.
// Uses errors.As to handle wrapped errors.
func codeIs(err error, code Code) bool {
	var me *Error
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// IsLookupMiss reports whether err is a LOOKUP_MISS mirror error.
func IsLookupMiss(err error) bool { return codeIs(err, CodeLookupMiss) }

// IsArityMismatch reports whether err is an ARITY_MISMATCH mirror error.
func IsArityMismatch(err error) bool { return codeIs(err, CodeArityMismatch) }

// IsBackingFailure reports whether err is a BACKING_FAILURE mirror error.
func IsBackingFailure(err error) bool { return codeIs(err, CodeBackingFailure) }

// IsStaleKey reports whether err is a STALE_KEY mirror error.
func IsStaleKey(err error) bool { return codeIs(err, CodeStaleKey) }

// IsDuplicateKey reports whether err is a DUPLICATE_KEY mirror error.
func IsDuplicateKey(err error) bool { return codeIs(err, CodeDuplicateKey) }

// IsNotLoaded reports whether err is a NOT_LOADED mirror error.
func IsNotLoaded(err error) bool { return codeIs(err, CodeNotLoaded) }
