// Package server provides the HTTP REST API for the CGPA tracker.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/cgpa-tracker/internal/db"
	"github.com/jonathan/cgpa-tracker/internal/grading"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Wrapped errors are unwrapped before matching.
func HTTPStatus(err error) int {
	var (
		emailExists *ErrEmailAlreadyExists
		badCreds    *ErrInvalidCredentials
		mismatch    *ErrPasswordMismatch
		noUser      *ErrUserNotFound
		badRequest  *ErrValidation
		persistence *grading.PersistenceError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &emailExists):
		return http.StatusConflict
	case errors.As(err, &badCreds), errors.As(err, &mismatch):
		return http.StatusUnauthorized
	case errors.As(err, &noUser), grading.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &badRequest), grading.IsValidation(err):
		return http.StatusBadRequest
	case errors.As(err, &persistence):
		if errors.Is(persistence, db.ErrVersionConflict) {
			return http.StatusConflict
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the error text safe to show a client. Internal
// failures are reported generically.
func publicMessage(err error) string {
	switch status := HTTPStatus(err); status {
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusConflict:
		var persistence *grading.PersistenceError
		if errors.As(err, &persistence) {
			return "record was modified concurrently, retry the request"
		}
	}

	var invalid *grading.ValidationError
	if errors.As(err, &invalid) {
		return invalid.Reason
	}
	return err.Error()
}
