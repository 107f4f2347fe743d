package optimization

import (
	"errors"
	"fmt"

	"github.com/copyleftdev/prospector/internal/optimization/geometry"
)

var (
	// ErrInvalidConfig marks a Config rejected by Validate.
	ErrInvalidConfig = errors.New("invalid optimizer configuration")
	// ErrInvalidBounds marks a search domain with non-positive extent.
	ErrInvalidBounds = errors.New("invalid search bounds")
	// ErrNilObjective is returned when no objective function was supplied.
	ErrNilObjective = errors.New("objective function is nil")
)

// Error represents an optimization error with context
// that can be wrapped with additional information.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	if e.Err != nil {
		if prefix != "" {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WrapErrorf wraps an existing error with additional formatted context.
// If err is nil, WrapErrorf returns nil.
func WrapErrorf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsOptimizationError checks if an error is of type Error.
func IsOptimizationError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func invalidConfig(op, format string, args ...interface{}) error {
	return WrapErrorf(ErrInvalidConfig, format, args...).WithOperation(op)
}

// ValidateBounds checks b and reports failures as ErrInvalidBounds.
func ValidateBounds(b geometry.Bounds) error {
	if err := b.Validate(); err != nil {
		return WrapErrorf(ErrInvalidBounds, "%v", err).WithOperation("ValidateBounds")
	}
	return nil
}
