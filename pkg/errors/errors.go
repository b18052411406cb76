// Package errors provides the error types used across qnglm.
//
// It builds on github.com/cockroachdb/errors so that every error carries a
// stack trace and can be inspected with errors.Is / errors.As. Model code
// returns the typed errors defined here for invalid input, and uses
// AssertionFailedf for programmer mistakes that must never reach production
// (for example a loss type that does not match the number of classes).
//
// Example:
//
//	if rows != yRows {
//		return errors.NewDimensionError("QN.Fit", rows, yRows, 0)
//	}
package errors

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
)

// Sentinel errors.
var (
	// ErrEmptyData is returned when an input matrix has no rows or columns.
	ErrEmptyData = errors.New("empty data")
	// ErrInvalidInput is returned for malformed input values such as unknown labels.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNumerical is returned when a computation produced NaN or Inf.
	ErrNumerical = errors.New("numerical instability")
	// ErrNotImplemented marks functionality that is deliberately unsupported.
	ErrNotImplemented = errors.New("not implemented")
)

// New returns an error with a stack trace.
func New(msg string) error { return errors.New(msg) }

// Newf formats an error with a stack trace.
func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

// Wrap annotates err with msg. It returns nil if err is nil.
func Wrap(err error, msg string) error { return errors.Wrap(err, msg) }

// Wrapf annotates err with a formatted message. It returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Unwrap returns the next error in err's chain.
func Unwrap(err error) error { return errors.Unwrap(err) }

// AssertionFailedf reports a violated precondition. Callers panic with the
// returned error; it is not meant to be handled at runtime.
func AssertionFailedf(format string, args ...interface{}) error {
	return errors.AssertionFailedf(format, args...)
}

// WithAssertionFailure marks err as an assertion failure, keeping its chain.
func WithAssertionFailure(err error) error { return errors.WithAssertionFailure(err) }

// IsAssertionFailure reports whether err carries an assertion failure.
func IsAssertionFailure(err error) bool { return errors.IsAssertionFailure(err) }

// DimensionError reports an input whose shape does not match what the
// operation expects.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

// NewDimensionError creates a DimensionError wrapped with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

func (e *DimensionError) Error() string {
	axis := "rows"
	if e.Axis == 1 {
		axis = "columns"
	}
	return fmt.Sprintf("qnglm: %s: dimension mismatch on %s: expected %d, got %d", e.Op, axis, e.Expected, e.Got)
}

// ValueError reports an argument with an unacceptable value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError wrapped with a stack trace.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("qnglm: %s: %s", e.Op, e.Message)
}

// NotFittedError is returned when a model is used before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError wrapped with a stack trace.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("qnglm: %s: model is not fitted, call Fit before %s", e.ModelName, e.Method)
}

// ModelError is a failure inside a model operation that wraps a cause.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

// NewModelError creates a ModelError wrapped with a stack trace.
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("qnglm: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("qnglm: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NumericalError reports a NaN or Inf produced during training.
type NumericalError struct {
	Name      string
	Value     float64
	Iteration int
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("qnglm: %s is %v at iteration %d", e.Name, e.Value, e.Iteration)
}

func (e *NumericalError) Unwrap() error { return ErrNumerical }

// CheckScalar returns a NumericalError if v is NaN or infinite.
func CheckScalar(name string, v float64, iteration int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.WithStack(&NumericalError{Name: name, Value: v, Iteration: iteration})
	}
	return nil
}

// CheckVector returns a NumericalError for the first non-finite element of v.
func CheckVector(name string, v []float64, iteration int) error {
	for i, x := range v {
		if err := CheckScalar(fmt.Sprintf("%s[%d]", name, i), x, iteration); err != nil {
			return err
		}
	}
	return nil
}
