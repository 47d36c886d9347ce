// Package grading implements grade points, semester GPA and cumulative GPA.
package grading

import (
	"errors"
	"fmt"
)

// Validation reasons returned to callers.
const (
	ReasonMissingNameOrGrade    = "missing name or grade"
	ReasonInvalidGrade          = "invalid grade"
	ReasonInvalidCredits        = "invalid credits"
	ReasonInvalidSemesterNumber = "invalid semester number"
	ReasonNoSubjects            = "no subjects provided"
)

// ValidationError reports malformed or rule-violating input. No mutation
// has happened when it is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NotFoundError reports a missing semester or record where one was required.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// PersistenceError wraps a failure of the storage layer.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("persistence error: %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("persistence error: %s", e.Op)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
