package filter

import "errors"

var (
	// ErrUnsupportedType is returned when a predicate builder has no comparison
	// rule for the declared type of the target field.
	ErrUnsupportedType = errors.New("unsupported field type for filter")

	// ErrParse is returned when a filter operand or key cannot be parsed.
	ErrParse = errors.New("malformed filter value")
)
