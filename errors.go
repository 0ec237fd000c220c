package formflow

import (
	"errors"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrAPIError        = errors.New("api error")
	ErrRateLimited     = errors.New("rate limited")
	ErrNotFound        = errors.New("not found")
	ErrUnsupportedType = errors.New("unsupported question type")
	ErrMissingArgument = errors.New("missing argument")
)

type wrapError struct {
	underlying error
	msg        string
	cause      error
}

var _ error = (*wrapError)(nil)

func NewValidationError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrValidation,
		msg:        msg,
		cause:      cause,
	}
}

func NewAPIError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrAPIError,
		msg:        msg,
		cause:      cause,
	}
}

func NewRateLimitError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrRateLimited,
		msg:        msg,
		cause:      cause,
	}
}

func (err *wrapError) Error() string {
	if err == nil {
		return "(*wrapError)(nil)"
	}
	message := err.underlying.Error() + ": " + err.msg
	if err.cause != nil {
		message += ": " + err.cause.Error()
	}
	return message
}

func (err *wrapError) Unwrap() []error {
	if err.cause == nil {
		return []error{err.underlying}
	}
	return []error{err.underlying, err.cause}
}
