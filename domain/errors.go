package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodePreconditionFailed ErrorCode = "PRECONDITION_FAILED"
	CodeUpstreamFormat     ErrorCode = "UPSTREAM_FORMAT"
	CodeUpstreamFailure    ErrorCode = "UPSTREAM_FAILURE"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// AppError carries a client-facing code and message. Err keeps the cause for
// logs and errors.Is/As.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

func NewError(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func WrapError(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func ErrValidation(message string) *AppError {
	return NewError(CodeValidationFailed, message)
}

func ErrNotFound(resource string, id uint) *AppError {
	return NewError(CodeNotFound, fmt.Sprintf("%s %d not found", resource, id))
}

func ErrPrecondition(message string) *AppError {
	return NewError(CodePreconditionFailed, message)
}

func ErrUpstreamFormat(err error, task Task) *AppError {
	return WrapError(err, CodeUpstreamFormat, fmt.Sprintf("language model returned malformed %s output", task))
}

func ErrUpstreamFailure(err error, task Task) *AppError {
	return WrapError(err, CodeUpstreamFailure, fmt.Sprintf("language model call for %s failed", task))
}

func ErrUnauthorized(message string) *AppError {
	return NewError(CodeUnauthorized, message)
}

func ErrForbidden(message string) *AppError {
	return NewError(CodeForbidden, message)
}

func ErrConflict(message string) *AppError {
	return NewError(CodeConflict, message)
}

// AsAppError extracts the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
