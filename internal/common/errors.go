package common

import (
	"errors"
	"net/http"
)

// AppError carries the HTTP status and machine-readable code a handler
// should render for a failed storefront operation.
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

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Status returns the HTTP status, defaulting to 500.
func (e *AppError) Status() int {
	if e == nil || e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

func (e *AppError) code() string {
	if e == nil || e.Code == "" {
		return "INTERNAL"
	}
	return e.Code
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// BadRequest builds a 400 AppError without an underlying cause.
func BadRequest(code, message string) *AppError {
	return NewAppError(code, message, http.StatusBadRequest, nil)
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// WriteError renders err. AppErrors keep their status and code; anything
// else is reported as an opaque 500 so driver messages never leak.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		JSONError(w, appErr.Status(), appErr.code(), appErr.Message, appErr.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
