package operator

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName is returned when an operator name is registered twice.
	ErrDuplicateName = errors.New("duplicate operator name")

	// ErrNotFound is returned when an operator name is not registered.
	ErrNotFound = errors.New("operator not found")

	// ErrMissingColumn is returned when the input key is absent from the table.
	ErrMissingColumn = errors.New("missing column")

	// ErrTypeConversion is returned when a column value is not text.
	ErrTypeConversion = errors.New("value is not text")
)

// DuplicateNameError reports a second registration under the same name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("operator %q already registered", e.Name)
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// NotFoundError reports a registry lookup miss.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown operator %q", e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// MissingColumnError reports that the input key names no column.
type MissingColumnError struct {
	Operator string
	Key      string
	Columns  []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: column %q not found (have %v)", e.Operator, e.Key, e.Columns)
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// TypeConversionError reports a non-text value in the target column.
type TypeConversionError struct {
	Operator string
	Key      string
	Row      int
	Value    any
}

func (e *TypeConversionError) Error() string {
	return fmt.Sprintf("%s: column %q row %d: expected text, got %T", e.Operator, e.Key, e.Row, e.Value)
}

func (e *TypeConversionError) Unwrap() error { return ErrTypeConversion }

// RefineError wraps a failure of the per-value transform.
type RefineError struct {
	Operator string
	Key      string
	Row      int
	Err      error
}

func (e *RefineError) Error() string {
	return fmt.Sprintf("%s: column %q row %d: %v", e.Operator, e.Key, e.Row, e.Err)
}

func (e *RefineError) Unwrap() error { return e.Err }
