package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks caller mistakes: wrong fund count, unknown period, blank ids.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFundNotFound marks identifiers the fund data store could not resolve.
	ErrFundNotFound = errors.New("fund not found")

	// ErrDataUnavailable marks failures of the fund data store itself.
	ErrDataUnavailable = errors.New("fund data unavailable")
)

// InputError describes a rejected comparison request.
type InputError struct {
	Reason     string
	MissingIDs []string
	cause      error
}

// NewInputError returns an InputError wrapping ErrInvalidInput.
func NewInputError(format string, args ...any) *InputError {
	return &InputError{Reason: fmt.Sprintf(format, args...), cause: ErrInvalidInput}
}

// NewNotFoundError returns an InputError wrapping ErrFundNotFound for the given ids.
func NewNotFoundError(ids []string) *InputError {
	return &InputError{
		Reason:     fmt.Sprintf("unknown fund id(s): %s", strings.Join(ids, ", ")),
		MissingIDs: ids,
		cause:      ErrFundNotFound,
	}
}

func (e *InputError) Error() string {
	return e.Reason
}

func (e *InputError) Unwrap() error {
	return e.cause
}

// IsInputError reports whether err is the caller's fault.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrFundNotFound)
}

// DataUnavailable wraps a store failure so callers can match ErrDataUnavailable.
func DataUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDataUnavailable, err)
}
