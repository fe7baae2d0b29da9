// Package apperr defines the error taxonomy shared by the services and the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a failure.
type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeForbidden    Code = "FORBIDDEN"
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeInternal     Code = "INTERNAL"
)

// Error is a classified failure with a message that is safe to show to the user.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error includes the code, the message and the cause.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Err }

// New creates an Error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error carrying an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Validation is shorthand for a VALIDATION_ERROR.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

var (
	ErrMemberNotFound     = New(CodeNotFound, "member not found")
	ErrAdminNotFound      = New(CodeNotFound, "admin not found")
	ErrDuplicateEmail     = New(CodeConflict, "a user with this email already exists")
	ErrAdminExists        = New(CodeConflict, "an admin user already exists")
	ErrSelfDelete         = New(CodeForbidden, "you cannot delete your own account")
	ErrLastAdmin          = New(CodeForbidden, "cannot delete the last admin account")
	ErrInvalidCredentials = New(CodeUnauthorized, "invalid email or password")
	ErrNotAuthenticated   = New(CodeUnauthorized, "not authenticated")
	ErrNotAuthorized      = New(CodeForbidden, "not authorized")
)

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of err, CodeInternal for unclassified errors.
func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// MessageOf returns the user-facing message for err. Unclassified errors never leak their text.
func MessageOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return "internal error"
}

// HTTPStatus maps a code to a response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
