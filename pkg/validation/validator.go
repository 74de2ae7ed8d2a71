package validation

import (
	"time"

	"github.com/goliatone/go-homeval/pkg/model"
)

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the time source used to derive the current year.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// Validator maps field names to their static configuration and interprets
// them with Field. It holds no per-form state.
type Validator struct {
	fields map[string]model.FieldSpec
	now    func() time.Time
}

// New builds a Validator for the fields of a schema.
func New(schema model.Schema, opts ...Option) *Validator {
	v := &Validator{
		fields: make(map[string]model.FieldSpec, len(schema.Fields)),
		now:    time.Now,
	}
	for _, field := range schema.Fields {
		v.fields[field.Name] = field
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Spec returns the configuration registered for name.
func (v *Validator) Spec(name string) (model.FieldSpec, bool) {
	spec, ok := v.fields[name]
	return spec, ok
}

// Validate checks a single raw value. values supplies the other fields' raw
// values for dependent checks. Unknown fields have no rules.
func (v *Validator) Validate(name, raw string, values map[string]string) string {
	spec, ok := v.fields[name]
	if !ok {
		return ""
	}
	return Field(spec, raw, Context{
		CurrentYear: v.now().Year(),
		Values:      values,
	})
}

// ValidateFields checks every listed field against values and returns the
// failing ones only.
func (v *Validator) ValidateFields(names []string, values map[string]string) model.Errors {
	errs := make(model.Errors)
	for _, name := range names {
		if msg := v.Validate(name, values[name], values); msg != "" {
			errs[name] = msg
		}
	}
	return errs
}
