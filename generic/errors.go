/*
errors.go - Centralized error types for the attendance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages return these; the HTTP layer maps them to status codes.

ERROR CATEGORIES:
  1. Not found        - A referenced record does not exist
  2. Configuration    - An employee lacks the compensation data payroll needs
  3. Validation       - A write violates a record invariant (negative hours,
                        end before start, duplicate absence)
  4. Data access      - The store failed; computations fail closed on these

USAGE:
  Callers test the category, not the message:

    if errors.Is(err, generic.ErrConfiguration) {
        // skip this employee, keep the batch going
    }

    var cfg *generic.ConfigurationError
    if errors.As(err, &cfg) {
        log.Printf("missing: %v", cfg.Missing)
    }

SEE ALSO:
  - payroll/calculator.go: Returns ConfigurationError
  - attendance/entities.go: Returns ValidationError
  - store/sqlstore: Wraps driver errors in DataAccessError
*/
package generic

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a record looked up by id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration is returned when required configuration (employee
	// compensation fields) is missing or unusable.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation is returned when a record violates an invariant.
	ErrValidation = errors.New("validation error")

	// ErrDataAccess is returned when the store could not be read or written.
	ErrDataAccess = errors.New("data access error")

	// ErrInUse is returned when deleting a record other records still reference.
	ErrInUse = errors.New("record in use")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ConfigurationError lists the fields that must be set before a
// computation can run for the employee.
type ConfigurationError struct {
	EmployeeID int64
	Missing    []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("employee %d: missing configuration: %s",
		e.EmployeeID, strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// ValidationError describes a rejected write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// DataAccessError wraps a store failure with the operation that failed.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access: %s: %v", e.Op, e.Err)
}

// Is matches the sentinel; Unwrap exposes the driver error.
func (e *DataAccessError) Is(target error) bool {
	return target == ErrDataAccess
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// InUseError reports how many records still reference the one being deleted.
type InUseError struct {
	Kind       string
	ID         int64
	References int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s %d is referenced by %d record(s)", e.Kind, e.ID, e.References)
}

func (e *InUseError) Unwrap() error {
	return ErrInUse
}

// WrapDataAccess returns nil for nil and leaves taxonomy and context
// errors untouched.
func WrapDataAccess(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInUse) || errors.Is(err, ErrDataAccess) {
		return err
	}
	return &DataAccessError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
