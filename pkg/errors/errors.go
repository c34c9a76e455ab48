package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common application errors
var (
	ErrFileTooLarge  = NewUploadTooLargeError(0)
	ErrDatabase      = NewDatabaseError("database error", nil)
	ErrStorageFailed = NewStorageError("failed to store file", nil)
)

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// HTTPStatus returns the HTTP status for this error
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// UploadTooLargeError is returned when an uploaded file exceeds the size limit
type UploadTooLargeError struct {
	Limit int64
}

// NewUploadTooLargeError creates a new upload size error
func NewUploadTooLargeError(limit int64) *UploadTooLargeError {
	return &UploadTooLargeError{Limit: limit}
}

// Error implements the error interface
func (e *UploadTooLargeError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("file too large: limit is %d bytes", e.Limit)
	}
	return "file too large"
}

// HTTPStatus returns the HTTP status for this error
func (e *UploadTooLargeError) HTTPStatus() int {
	return http.StatusRequestEntityTooLarge
}

// DatabaseError wraps a connection or constraint failure
type DatabaseError struct {
	Message string
	Err     error
}

// NewDatabaseError creates a new database error
func NewDatabaseError(message string, err error) *DatabaseError {
	return &DatabaseError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *DatabaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status for this error
func (e *DatabaseError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// StorageError wraps a filesystem failure while persisting an upload
type StorageError struct {
	Message string
	Err     error
}

// NewStorageError creates a new storage error
func NewStorageError(message string, err error) *StorageError {
	return &StorageError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status for this error
func (e *StorageError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// StartupError marks a failure that must abort the process before it serves
type StartupError struct {
	Stage string
	Err   error
}

// NewStartupError creates a new startup error
func NewStartupError(stage string, err error) *StartupError {
	return &StartupError{
		Stage: stage,
		Err:   err,
	}
}

// Error implements the error interface
func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the wrapped error
func (e *StartupError) Unwrap() error {
	return e.Err
}

// HTTPStatuser interface for errors that can provide an HTTP status
type HTTPStatuser interface {
	HTTPStatus() int
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var s HTTPStatuser
	if errors.As(err, &s) {
		return s.HTTPStatus()
	}
	return http.StatusInternalServerError
}
