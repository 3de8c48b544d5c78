// Package errors implements the error taxonomy from the core design: a
// small set of sentinel errors, each wrappable with a diagnostic message
// via WithMessage, and recoverable via GetName for structured logging.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInternal indicates a bug or invariant violation in core code.
	ErrInternal = errors.New("internal error")
	// ErrInputFormat indicates malformed input: a netstring frame, a CSV
	// row, an S-expression, or a bytecode image that failed to parse.
	ErrInputFormat = errors.New("malformed input")
	// ErrResourceExhausted indicates an allocation or file-descriptor
	// limit was hit while servicing one operation.
	ErrResourceExhausted = errors.New("resource exhausted")
	// ErrProtocolViolation indicates a store client violated the request
	// protocol: unknown action, open before enter, invalid path.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrEnvironmental indicates a fatal startup or environment failure:
	// sandbox entry, bind, or index-file corruption.
	ErrEnvironmental = errors.New("environmental error")
	// ErrEval indicates a vulnspec evaluation was aborted by a match
	// callback returning a value <= 0.
	ErrEval = errors.New("evaluation aborted")
)

// WithMessage wraps one of the sentinel errors above with a
// caller-supplied diagnostic, preserving errors.Is(err, sentinel).
func WithMessage(e error, msg string) error {
	if len(msg) > 0 {
		return fmt.Errorf("%w: %s", e, msg)
	}
	return fmt.Errorf("%w", e)
}

// GetName returns the sentinel's symbolic name for structured logging,
// or "ErrUnknown" if err doesn't wrap one of the sentinels above.
func GetName(err error) string {
	switch {
	case errors.Is(err, ErrInternal):
		return "ErrInternal"
	case errors.Is(err, ErrInputFormat):
		return "ErrInputFormat"
	case errors.Is(err, ErrResourceExhausted):
		return "ErrResourceExhausted"
	case errors.Is(err, ErrProtocolViolation):
		return "ErrProtocolViolation"
	case errors.Is(err, ErrEnvironmental):
		return "ErrEnvironmental"
	case errors.Is(err, ErrEval):
		return "ErrEval"
	default:
		return "ErrUnknown"
	}
}
