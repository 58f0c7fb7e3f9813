// Package errors provides the error taxonomy and warning system used across zeroshoteval.
// Every constructor attaches a stack trace through cockroachdb/errors so that
// failures surfacing from deep inside a loader can be traced back with %+v.
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("zsl-warning: %v\n", w)
	}
	// set by pkg/log to avoid an import cycle
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the handler used by Warn when no zerolog
// function has been registered.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // drop warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc registers the structured warning sink.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn reports a non-fatal condition. The zerolog sink wins when registered.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warnings
//
// ===========================================================================

// ClassOverlapWarning is raised when seen and unseen class sets intersect and
// the loader was not asked to fail on it.
type ClassOverlapWarning struct {
	Dataset string
	Classes []int
}

func (w *ClassOverlapWarning) Error() string {
	return fmt.Sprintf("%s: seen and unseen classes overlap on %v", w.Dataset, w.Classes)
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *ClassOverlapWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("dataset", w.Dataset).
		Ints("classes", w.Classes).
		Str("type", "ClassOverlapWarning")
}

// NewClassOverlapWarning creates a ClassOverlapWarning.
func NewClassOverlapWarning(dataset string, classes []int) *ClassOverlapWarning {
	return &ClassOverlapWarning{Dataset: dataset, Classes: classes}
}

// ===========================================================================
//
//	Loader errors
//
// ===========================================================================

// ConfigurationError reports a construction parameter outside its allowed set.
// It is always raised before any file is touched.
type ConfigurationError struct {
	Param   string
	Value   string
	Allowed []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("zsl: invalid configuration for %s: %q", e.Param, e.Value)
	}
	return fmt.Sprintf("zsl: invalid configuration for %s: %q (allowed: %s)",
		e.Param, e.Value, strings.Join(e.Allowed, ", "))
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param", e.Param).
		Str("value", e.Value).
		Strs("allowed", e.Allowed).
		Str("type", "ConfigurationError")
}

// NewConfigurationError creates a ConfigurationError with a stack trace.
func NewConfigurationError(param, value string, allowed []string) error {
	return errors.WithStack(&ConfigurationError{Param: param, Value: value, Allowed: allowed})
}

// DataUnavailableError reports an auxiliary modality with no backing data for
// the requested benchmark.
type DataUnavailableError struct {
	Dataset string
	Source  string
	Path    string
	Reason  string
}

func (e *DataUnavailableError) Error() string {
	msg := fmt.Sprintf("zsl: auxiliary source %q is not available for dataset %q", e.Source, e.Dataset)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	return msg
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *DataUnavailableError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("dataset", e.Dataset).
		Str("source", e.Source).
		Str("path", e.Path).
		Str("reason", e.Reason).
		Str("type", "DataUnavailableError")
}

// NewDataUnavailableError creates a DataUnavailableError with a stack trace.
func NewDataUnavailableError(dataset, source, path, reason string) error {
	return errors.WithStack(&DataUnavailableError{Dataset: dataset, Source: source, Path: path, Reason: reason})
}

// IOError reports a missing or corrupt source file. The cause stays reachable
// through Unwrap, so errors.Is(err, fs.ErrNotExist) keeps working.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("zsl: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("zsl: %s %s", e.Op, e.Path)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *IOError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("path", e.Path).
		AnErr("cause", e.Err).
		Str("type", "IOError")
}

// NewIOError creates an IOError with a stack trace.
func NewIOError(op, path string, err error) error {
	return errors.WithStack(&IOError{Op: op, Path: path, Err: err})
}

// ShapeMismatchError reports inconsistent sizes between loaded arrays, or an
// index / label outside its valid range.
type ShapeMismatchError struct {
	Op       string
	What     string
	Expected int
	Got      int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("zsl: %s: shape mismatch for %s. Expected %d, got %d", e.Op, e.What, e.Expected, e.Got)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ShapeMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("what", e.What).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", "ShapeMismatchError")
}

// NewShapeMismatchError creates a ShapeMismatchError with a stack trace.
func NewShapeMismatchError(op, what string, expected, got int) error {
	return errors.WithStack(&ShapeMismatchError{Op: op, What: what, Expected: expected, Got: got})
}

// ConsistencyError reports a broken benchmark protocol invariant, such as
// seen and unseen classes sharing ids.
type ConsistencyError struct {
	Dataset string
	Rule    string
	Classes []int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("zsl: %s: %s violated by classes %v", e.Dataset, e.Rule, e.Classes)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ConsistencyError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("dataset", e.Dataset).
		Str("rule", e.Rule).
		Ints("classes", e.Classes).
		Str("type", "ConsistencyError")
}

// NewConsistencyError creates a ConsistencyError with a stack trace.
func NewConsistencyError(dataset, rule string, classes []int) error {
	return errors.WithStack(&ConsistencyError{Dataset: dataset, Rule: rule, Classes: classes})
}

// ===========================================================================
//
//	Numeric errors
//
// ===========================================================================

// NotFittedError is returned when Transform is called before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("zsl: %s: this transformer is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError is returned when a matrix has the wrong number of rows or columns.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("zsl: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValueError is returned when an argument has an unusable value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("zsl: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// NumericalInstabilityError reports NaN or Inf values found in loaded data.
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Row       int
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("zsl: non-finite values detected in %s at row %d. Values: [%s]",
		e.Operation, e.Row, valStr)
}

// NewNumericalInstabilityError creates a NumericalInstabilityError with a stack trace.
func NewNumericalInstabilityError(operation string, values []float64, row int) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Values: values, Row: row})
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to err.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Sentinel errors
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an operation receives zero rows or columns.
	ErrEmptyData = New("empty data")

	// ErrUnsupportedFormat is returned for container files this build cannot decode.
	ErrUnsupportedFormat = New("unsupported file format")
)
