package common

import "errors"

// AppError pairs a terminal-facing code and HTTP status with the wrapped
// cause, so a handler can translate a domain failure in one place instead of
// matching sentinel errors case by case.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError builds an AppError around err.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError reports whether err carries an AppError anywhere in its chain.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
