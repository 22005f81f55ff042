// Package apperr holds the error taxonomy shared by every layer: input that
// fails validation, and storage or submission backends that are unavailable.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrService matches every *ServiceError via errors.Is.
	ErrService = errors.New("service unavailable")
)

// ValidationError reports malformed or out-of-policy input. It is surfaced
// verbatim to the caller and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ServiceError reports a failed or unreachable backend (store, timesheet API,
// mail relay). Op names the backend call that failed.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: service unavailable", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrService
}

// Validation builds a *ValidationError for field.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Service wraps err as a *ServiceError. A nil err stays nil and an error that
// already is a ServiceError is returned as is.
func Service(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	return &ServiceError{Op: op, Err: err}
}

// IsValidation returns true if err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsService returns true if err is, or wraps, a *ServiceError.
func IsService(err error) bool {
	return errors.Is(err, ErrService)
}

// Kind names the taxonomy branch of err for transport payloads.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return "validation"
	case IsService(err):
		return "service"
	default:
		return "internal"
	}
}
