package filter

import "fmt"

// ColumnNotFoundError is returned when a condition references a column that is
// absent from the active metadata set. It is fatal to the compilation call
// that encountered it.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found in metadata", e.Column)
}

// InvalidValueError is returned by a value processor when a raw value cannot
// be normalized for its column's type class, e.g. non-numeric input for a
// numeric column.
type InvalidValueError struct {
	Column string
	Value  any
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %v for column %q: %s", e.Value, e.Column, e.Reason)
}
