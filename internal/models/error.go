package models

import (
	"fmt"
	"net/http"
)

// AppError is a failure that is safe to show to the client as is
type AppError struct {
	Status  int    `json:"-"`
	Text    string `json:"error"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Text, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Text)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap attaches the underlying cause, which is logged but never rendered
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// NewAppError creates an AppError. Message defaults to the error text.
func NewAppError(status int, text string, message ...string) *AppError {
	err := &AppError{Status: status, Text: text, Message: text}
	if len(message) > 0 {
		err.Message = message[0]
	}
	return err
}

// Predefined client-facing errors, each with a default text

func ErrBadRequest(message ...string) *AppError {
	return NewAppError(http.StatusBadRequest, first(message, "Bad request"))
}

func ErrUnauthorized(message ...string) *AppError {
	return NewAppError(http.StatusUnauthorized, first(message, "Unauthorized"))
}

func ErrForbidden(message ...string) *AppError {
	return NewAppError(http.StatusForbidden, first(message, "Access forbidden"))
}

func ErrNotFound(message ...string) *AppError {
	return NewAppError(http.StatusNotFound, first(message, "Resource not found"))
}

func ErrConflict(message ...string) *AppError {
	return NewAppError(http.StatusConflict, first(message, "Resource conflict"))
}

func ErrTooManyRequests(message ...string) *AppError {
	return NewAppError(http.StatusTooManyRequests, first(message, "Too many requests"))
}

func ErrInternal(message ...string) *AppError {
	return NewAppError(http.StatusInternalServerError, first(message, "Internal server error"))
}

func first(values []string, fallback string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return fallback
}
