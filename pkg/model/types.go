package model

// FieldKind selects the validation rule family applied to a field.
type FieldKind string

const (
	FieldKindNumber     FieldKind = "number"
	FieldKindInteger    FieldKind = "integer"
	FieldKindHalfStep   FieldKind = "decimal-half-step"
	FieldKindYear       FieldKind = "year"
	FieldKindPostalCode FieldKind = "postal-code"
	FieldKindEnumerated FieldKind = "enumerated"
)

// Valid reports whether the kind is one of the known rule families.
func (k FieldKind) Valid() bool {
	switch k {
	case FieldKindNumber, FieldKindInteger, FieldKindHalfStep, FieldKindYear, FieldKindPostalCode, FieldKindEnumerated:
		return true
	}
	return false
}

// Option is a selectable value for enumerated fields.
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
}

// FieldSpec is the static configuration for a single form field. Bounds are
// optional; Min and Max are inclusive. Digits applies to postal codes only.
// DependsOn names another year field acting as a lower bound, and AllowZero
// lets a year field use 0 to mean "never".
type FieldSpec struct {
	Name        string    `yaml:"name" json:"name"`
	Label       string    `yaml:"label,omitempty" json:"label,omitempty"`
	Help        string    `yaml:"help,omitempty" json:"help,omitempty"`
	Kind        FieldKind `yaml:"kind" json:"kind"`
	Required    bool      `yaml:"required,omitempty" json:"required,omitempty"`
	Min         *float64  `yaml:"min,omitempty" json:"min,omitempty"`
	Max         *float64  `yaml:"max,omitempty" json:"max,omitempty"`
	Digits      int       `yaml:"digits,omitempty" json:"digits,omitempty"`
	Options     []Option  `yaml:"options,omitempty" json:"options,omitempty"`
	DependsOn   string    `yaml:"dependsOn,omitempty" json:"dependsOn,omitempty"`
	AllowZero   bool      `yaml:"allowZero,omitempty" json:"allowZero,omitempty"`
	Default     string    `yaml:"default,omitempty" json:"default,omitempty"`
	DefaultFrom string    `yaml:"defaultFrom,omitempty" json:"defaultFrom,omitempty"`
}

// DisplayLabel falls back to the field name when no label is configured.
func (f FieldSpec) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// OptionValues returns the raw values accepted by an enumerated field.
func (f FieldSpec) OptionValues() []string {
	out := make([]string, 0, len(f.Options))
	for _, opt := range f.Options {
		out = append(out, opt.Value)
	}
	return out
}

// Step is one screen of related fields in the multi-step flow.
type Step struct {
	Index  int      `yaml:"-" json:"index"`
	Label  string   `yaml:"label" json:"label"`
	Fields []string `yaml:"fields" json:"fields"`
}

// Errors maps field names to a human readable message. A missing key means
// the field is currently valid.
type Errors map[string]string

// Clone returns an independent copy.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
