// Package vmerr defines the error kinds shared across the loader, cast
// manager, and VM (spec.md §7 "Error Handling Design"). Modeling them as
// one typed error, the way the teacher carries types.ErrorCode as a
// MooError, lets every layer propagate a Go error while still exposing
// the specific kind to callers that need to branch on it (e.g. the
// dispatcher deciding whether a loader failure is terminal).
package vmerr

import (
	"errors"
	"fmt"
)

// Kind enumerates the error kinds named in spec.md §7.
type Kind int

const (
	// Loader kinds — terminal for the file being loaded.
	BadFormat Kind = iota
	CorruptChunk
	UnsupportedVersion
	UnsupportedCompression

	// Runtime lookup failures — recoverable; the VM turns these into a
	// trace event and continues with Void.
	UnresolvedMember
	UnresolvedHandler
	UnresolvedName

	// VM-fatal — abort the current top-level dispatch only.
	StackUnderflow
	UnknownOpcode
	AncestorCycle
	StepLimitExceeded

	// Reported only via net built-in results, never thrown.
	NetFailure
)

func (k Kind) String() string {
	switch k {
	case BadFormat:
		return "BadFormat"
	case CorruptChunk:
		return "CorruptChunk"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case UnsupportedCompression:
		return "UnsupportedCompression"
	case UnresolvedMember:
		return "UnresolvedMember"
	case UnresolvedHandler:
		return "UnresolvedHandler"
	case UnresolvedName:
		return "UnresolvedName"
	case StackUnderflow:
		return "StackUnderflow"
	case UnknownOpcode:
		return "UnknownOpcode"
	case AncestorCycle:
		return "AncestorCycle"
	case StepLimitExceeded:
		return "StepLimitExceeded"
	case NetFailure:
		return "NetFailure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Recoverable reports whether the VM should turn this kind into a trace
// event and continue (true) or abort the current top-level dispatch
// (false) — see spec.md §7 "Propagation policy".
func (k Kind) Recoverable() bool {
	switch k {
	case UnresolvedMember, UnresolvedHandler, UnresolvedName:
		return true
	default:
		return false
	}
}

// Error carries a Kind plus context. It implements the standard error
// interface so it can flow through normal Go error handling while still
// being inspected with errors.As.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an *Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a *Error of the given kind, unwrapping as
// needed.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
