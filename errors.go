package gtd

import (
	"strings"

	"github.com/pkg/errors"
)

// Error is a constant error type so that sentinel errors can be declared as
// consts and compared against errors.Cause.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrDataUnavailable is the cause of any error returned while loading the
	// event table when the source is unreadable or malformed. It is fatal to
	// the session: no partial table is ever returned alongside it.
	ErrDataUnavailable = Error("event data unavailable")

	// ErrInvalidFilterValue is the cause of errors returned when a query
	// parameter is outside of its enumerated domain (e.g. an unknown
	// continent bucket). Only the single query is rejected.
	ErrInvalidFilterValue = Error("invalid filter value")
)

// IsDataUnavailable reports whether err was caused by ErrDataUnavailable.
func IsDataUnavailable(err error) bool {
	return err != nil && errors.Cause(err) == ErrDataUnavailable
}

// IsInvalidFilterValue reports whether err was caused by
// ErrInvalidFilterValue.
func IsInvalidFilterValue(err error) bool {
	return err != nil && errors.Cause(err) == ErrInvalidFilterValue
}

// Unavailable wraps err so that its cause becomes ErrDataUnavailable while
// keeping the original message.
func Unavailable(err error, msg string) error {
	return errors.Wrapf(ErrDataUnavailable, "%s: %v", msg, err)
}

// Invalidf returns an error caused by ErrInvalidFilterValue.
func Invalidf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidFilterValue, format, args...)
}

// Errors collects multiple errors into one.
type Errors []error

func (errs Errors) Error() string {
	errstrings := make([]string, len(errs))
	for i, err := range errs {
		errstrings[i] = err.Error()
	}
	return strings.Join(errstrings, "; ")
}
