package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errSchemaNameMissing = errors.New("model: schema name is required")
	errSchemaNoSteps     = errors.New("model: schema defines no steps")
)

// Schema is a complete form definition: every field the prediction needs and
// the ordered steps that collect them.
type Schema struct {
	Name        string      `yaml:"name" json:"name"`
	Title       string      `yaml:"title,omitempty" json:"title,omitempty"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Deprecated  bool        `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
	Steps       []Step      `yaml:"steps" json:"steps"`
	Fields      []FieldSpec `yaml:"fields" json:"fields"`
}

// Field looks up a field configuration by name.
func (s Schema) Field(name string) (FieldSpec, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldSpec{}, false
}

// FieldNames lists field names in step order.
func (s Schema) FieldNames() []string {
	var out []string
	for _, step := range s.Steps {
		out = append(out, step.Fields...)
	}
	return out
}

// Dependents returns the fields whose validity depends on name.
func (s Schema) Dependents(name string) []string {
	var out []string
	for _, field := range s.Fields {
		if field.DependsOn == name {
			out = append(out, field.Name)
		}
	}
	return out
}

// LastStep returns the index of the final step.
func (s Schema) LastStep() int {
	return len(s.Steps) - 1
}

// Validate checks the schema is usable: names are unique, kinds are known,
// kind-specific settings are present and the steps partition the fields so
// every field belongs to exactly one step.
func (s Schema) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errSchemaNameMissing
	}
	if len(s.Steps) == 0 {
		return errSchemaNoSteps
	}

	specs := make(map[string]FieldSpec, len(s.Fields))
	for _, field := range s.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return fmt.Errorf("model: schema %q has a field without a name", s.Name)
		}
		if _, exists := specs[name]; exists {
			return fmt.Errorf("model: schema %q declares field %q twice", s.Name, name)
		}
		if err := validateFieldSpec(field); err != nil {
			return fmt.Errorf("model: schema %q: %w", s.Name, err)
		}
		specs[name] = field
	}

	for _, field := range s.Fields {
		for _, ref := range []string{field.DependsOn, field.DefaultFrom} {
			if ref == "" {
				continue
			}
			if _, ok := specs[ref]; !ok {
				return fmt.Errorf("model: schema %q: field %q references unknown field %q", s.Name, field.Name, ref)
			}
		}
	}

	owner := make(map[string]int, len(specs))
	for idx, step := range s.Steps {
		if len(step.Fields) == 0 {
			return fmt.Errorf("model: schema %q: step %d (%s) has no fields", s.Name, idx, step.Label)
		}
		for _, name := range step.Fields {
			if _, ok := specs[name]; !ok {
				return fmt.Errorf("model: schema %q: step %d references unknown field %q", s.Name, idx, name)
			}
			if prev, taken := owner[name]; taken {
				return fmt.Errorf("model: schema %q: field %q appears in steps %d and %d", s.Name, name, prev, idx)
			}
			owner[name] = idx
		}
	}

	for name := range specs {
		if _, ok := owner[name]; !ok {
			return fmt.Errorf("model: schema %q: field %q is not reachable from any step", s.Name, name)
		}
	}
	return nil
}

func validateFieldSpec(field FieldSpec) error {
	if !field.Kind.Valid() {
		return fmt.Errorf("field %q has unknown kind %q", field.Name, field.Kind)
	}
	if field.Min != nil && field.Max != nil && *field.Min > *field.Max {
		return fmt.Errorf("field %q has min %v greater than max %v", field.Name, *field.Min, *field.Max)
	}
	switch field.Kind {
	case FieldKindPostalCode:
		if field.Digits <= 0 {
			return fmt.Errorf("field %q: postal code requires a digit count", field.Name)
		}
	case FieldKindEnumerated:
		if len(field.Options) == 0 {
			return fmt.Errorf("field %q: enumerated field requires options", field.Name)
		}
	}
	if field.Required && (field.Default != "" || field.DefaultFrom != "") {
		return fmt.Errorf("field %q: required fields cannot declare defaults", field.Name)
	}
	return nil
}
