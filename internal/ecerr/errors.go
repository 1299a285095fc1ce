// Package ecerr defines the error kinds of the process-data plane (§7): the
// vocabulary the domain engine and the per-slave request FSM use to report
// what went wrong without forcing every caller to string-match messages.
package ecerr

import "fmt"

// Kind classifies an error raised by the domain engine or request FSM.
type Kind int

const (
	// OutOfMemory is raised when allocating the process image or a
	// datagram pair's buffers during Finish fails.
	OutOfMemory Kind = iota
	// Configuration is raised for a registration-time mistake: no
	// matching slave found, or an FMMU too large for any single
	// datagram.
	Configuration
	// LinkTimeout is raised when a datagram never returned.
	LinkTimeout
	// WireMismatch is raised when a datagram returned with an
	// unexpected working counter.
	WireMismatch
	// SubFsmFailure is raised when a CoE/FoE/SoE sub-state-machine
	// reports failure.
	SubFsmFailure
	// Precondition is raised when a request is submitted, or reaches
	// the front of its queue, while the slave is in a forbidden
	// AL-state.
	Precondition
)

func (k Kind) String() string {
	switch k {
	case OutOfMemory:
		return "out_of_memory"
	case Configuration:
		return "configuration"
	case LinkTimeout:
		return "link_timeout"
	case WireMismatch:
		return "wire_mismatch"
	case SubFsmFailure:
		return "sub_fsm_failure"
	case Precondition:
		return "precondition"
	default:
		return "unknown"
	}
}

// Error is a kinded error: callers that need to branch on failure mode
// (§7 propagation policy) type-assert or use errors.As, everyone else just
// reads Error().
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

// New constructs a kinded error with no underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf constructs a kinded error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs a kinded error that carries an underlying cause.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == kind
}
