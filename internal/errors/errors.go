package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitlit/internal/logger"
)

// Error categories. Every error produced by the habit core wraps exactly one of these.
var (
	ErrValidation         = errors.New("validation error")
	ErrState              = errors.New("state error")
	ErrEmptyInput         = errors.New("empty input")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

var (
	ErrAlreadyCompletedThisPeriod = fmt.Errorf("%w: habit already completed this period", ErrState)
	ErrHabitInactive              = fmt.Errorf("%w: habit is inactive", ErrState)
	ErrNoDeadlineSet              = fmt.Errorf("%w: no deadline set", ErrState)
	ErrNonChronological           = fmt.Errorf("%w: completion must be later than the previous entry", ErrValidation)
	ErrInvalidFrequency           = fmt.Errorf("%w: frequency must be daily, weekly or monthly", ErrValidation)
	ErrInvalidGoal                = fmt.Errorf("%w: goal must be a positive integer", ErrValidation)
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Validation returns a ValidationError for the given field.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Unavailable wraps a persistence failure so callers can match ErrStorageUnavailable.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Describe turns a core error into a short message suitable for a user.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyCompletedThisPeriod):
		return "The habit has already been done for this period."
	case errors.Is(err, ErrHabitInactive):
		return "The habit is no longer active."
	case errors.Is(err, ErrNoDeadlineSet):
		return "The habit has no deadline yet."
	case errors.Is(err, ErrEmptyInput):
		return "There are no habits to analyze."
	case errors.Is(err, ErrStorageUnavailable):
		return fmt.Sprintf("Storage is unavailable: %v", err)
	default:
		return err.Error()
	}
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Formatf("%s", Describe(err)))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
