package form

import "errors"

// ErrUnknownField is returned when a value is written for a field the schema
// does not declare.
var ErrUnknownField = errors.New("form: unknown field")
