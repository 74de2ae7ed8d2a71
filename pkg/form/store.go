package form

import (
	"fmt"

	"github.com/goliatone/go-homeval/pkg/model"
	"github.com/goliatone/go-homeval/pkg/validation"
)

// Store tracks raw values and validation messages keyed by field name. It is
// not safe for concurrent use; the step controller serialises access.
type Store struct {
	schema      model.Schema
	validator   *validation.Validator
	values      map[string]string
	errors      model.Errors
	submitError string
}

// NewStore seeds a store with prefilled raw values. Prefilled values are not
// validated until they are changed or a step is checked.
func NewStore(schema model.Schema, validator *validation.Validator, prefill map[string]string) *Store {
	if validator == nil {
		validator = validation.New(schema)
	}
	s := &Store{
		schema:    schema,
		validator: validator,
		values:    make(map[string]string, len(schema.Fields)),
		errors:    make(model.Errors),
	}
	for name, raw := range prefill {
		if _, ok := schema.Field(name); ok {
			s.values[name] = raw
		}
	}
	return s
}

// Schema returns the schema the store was built for.
func (s *Store) Schema() model.Schema {
	return s.schema
}

// Set records a raw value and recomputes the error entry of the field and of
// any field that depends on it. The field's new message ("" when valid) is
// returned.
func (s *Store) Set(name, raw string) (string, error) {
	if _, ok := s.schema.Field(name); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	s.values[name] = raw
	s.revalidate(name)
	for _, dependent := range s.schema.Dependents(name) {
		if _, touched := s.values[dependent]; touched {
			s.revalidate(dependent)
		}
	}
	return s.errors[name], nil
}

// Check returns the message raw would produce for name against the current
// values, without recording anything.
func (s *Store) Check(name, raw string) string {
	values := s.Values()
	values[name] = raw
	return s.validator.Validate(name, raw, values)
}

// Value returns the raw value of a field and whether one was ever written.
func (s *Store) Value(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Values returns a copy of all raw values.
func (s *Store) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Errors returns a copy of the current field errors.
func (s *Store) Errors() model.Errors {
	return s.errors.Clone()
}

// ErrorFor returns the message recorded for a field, or "".
func (s *Store) ErrorFor(name string) string {
	return s.errors[name]
}

// ValidateFields checks the listed fields, records their messages and reports
// whether all of them passed. Fields not listed keep their state.
func (s *Store) ValidateFields(names []string) bool {
	valid := true
	for _, name := range names {
		if s.revalidate(name) != "" {
			valid = false
		}
	}
	return valid
}

// SetSubmitError records the submission-level message. Field errors are left
// untouched.
func (s *Store) SetSubmitError(msg string) {
	s.submitError = msg
}

// SubmitError returns the submission-level message, or "".
func (s *Store) SubmitError() string {
	return s.submitError
}

// Reset clears values and every error.
func (s *Store) Reset() {
	s.values = make(map[string]string, len(s.schema.Fields))
	s.errors = make(model.Errors)
	s.submitError = ""
}

func (s *Store) revalidate(name string) string {
	msg := s.validator.Validate(name, s.values[name], s.values)
	if msg == "" {
		delete(s.errors, name)
	} else {
		s.errors[name] = msg
	}
	return msg
}
