// Package errors provides the structured error type shared by every layer of
// MolProp-Intelligence. Domain code returns *AppError values; the HTTP, CLI
// and worker boundaries turn them into responses without string matching.
package errors

import (
	"errors"
	"fmt"
)

// AppError is the canonical error carrier.
type AppError struct {
	Code    ErrorCode
	Message string
	Detail  string
	Cause   error
}

// Error renders "[CODE] message: detail (cause)".
func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += " (" + e.Cause.Error() + ")"
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches any *AppError carrying the same code, so sentinel values such as
// ErrModelNotLoaded work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns a copy of e with Detail set.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Detail = detail
	return &cp
}

// HTTPStatus returns the status associated with the error code.
func (e *AppError) HTTPStatus() int { return e.Code.HTTPStatus() }

// New creates an AppError. An empty message falls back to the code's default.
func New(code ErrorCode, message string) *AppError {
	if message == "" {
		message = code.DefaultMessage()
	}
	return &AppError{Code: code, Message: message}
}

// Newf is New with formatting.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a code and message to cause. Wrapping nil returns nil.
func Wrap(cause error, code ErrorCode, message string) *AppError {
	if cause == nil {
		return nil
	}
	e := New(code, message)
	e.Cause = cause
	return e
}

// Wrapf is Wrap with formatting.
func Wrapf(cause error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(cause, code, fmt.Sprintf(format, args...))
}

// GetCode returns the code of the outermost AppError in err's chain, or
// ErrCodeInternal if there is none.
func GetCode(err error) ErrorCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		if ae, ok := err.(*AppError); ok && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// As and Is re-export the standard library helpers so callers need a single
// import.
func As(err error, target interface{}) bool { return errors.As(err, target) }
func Is(err, target error) bool             { return errors.Is(err, target) }

// Sentinels for the pipeline taxonomy.
var (
	ErrInvalidStructure  = New(ErrCodeInvalidStructure, "")
	ErrModelNotLoaded    = New(ErrCodeModelNotLoaded, "")
	ErrDimensionMismatch = New(ErrCodeDimensionMismatch, "")
	ErrNumericAnomaly    = New(ErrCodeNumericAnomaly, "")
)

// DimensionMismatch builds the standard width-disagreement error.
func DimensionMismatch(what string, want, got int) *AppError {
	return Newf(ErrCodeDimensionMismatch, "%s: expected width %d, got %d", what, want, got)
}

//Personal.AI order the ending
