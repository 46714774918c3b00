package persistence

import (
	"errors"
	"fmt"
)

// Kind categorizes persistence errors.
type Kind string

const (
	// KindConfiguration indicates a unit that cannot be resolved or is invalid.
	KindConfiguration Kind = "CONFIGURATION"

	// KindConnection indicates the backing store could not be reached.
	KindConnection Kind = "CONNECTION"

	// KindTransaction indicates a failed transaction. The transaction has
	// already been rolled back when this error is returned.
	KindTransaction Kind = "TRANSACTION"

	// KindContextClosed indicates use of a persistence context after Close.
	KindContextClosed Kind = "CONTEXT_CLOSED"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrConnection    = errors.New("connection error")
	ErrTransaction   = errors.New("transaction error")
	ErrContextClosed = errors.New("persistence context closed")
)

// Error is the error type returned by the config, store and bootstrap
// packages.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Op names the failing operation (e.g. "open", "commit").
	Op string

	// Unit is the persistence unit involved, if known.
	Unit string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Unit != "" {
		msg += fmt.Sprintf(" (unit=%s)", e.Unit)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

func sentinel(k Kind) error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindConnection:
		return ErrConnection
	case KindTransaction:
		return ErrTransaction
	case KindContextClosed:
		return ErrContextClosed
	}
	return nil
}

// NewConfigurationError creates an Error of kind CONFIGURATION.
func NewConfigurationError(op, unit string, err error) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Unit: unit, Err: err}
}

// NewConnectionError creates an Error of kind CONNECTION.
func NewConnectionError(op, unit string, err error) *Error {
	return &Error{Kind: KindConnection, Op: op, Unit: unit, Err: err}
}

// NewTransactionError creates an Error of kind TRANSACTION.
func NewTransactionError(op, unit string, err error) *Error {
	return &Error{Kind: KindTransaction, Op: op, Unit: unit, Err: err}
}

// NewContextClosedError creates an Error of kind CONTEXT_CLOSED.
func NewContextClosedError(op, unit string) *Error {
	return &Error{Kind: KindContextClosed, Op: op, Unit: unit}
}

// IsConfigurationError returns true if err is (or wraps) a CONFIGURATION error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsConnectionError returns true if err is (or wraps) a CONNECTION error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsTransactionError returns true if err is (or wraps) a TRANSACTION error.
func IsTransactionError(err error) bool {
	return errors.Is(err, ErrTransaction)
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
