package validation_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-homeval/pkg/formschema"
	"github.com/goliatone/go-homeval/pkg/model"
	"github.com/goliatone/go-homeval/pkg/validation"
)

func fixedClock() time.Time {
	return time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
}

func loadValidator(t *testing.T, name string) *validation.Validator {
	t.Helper()
	schema, err := formschema.Resolve(name)
	if err != nil {
		t.Fatalf("resolve %s: %v", name, err)
	}
	return validation.New(schema, validation.WithClock(fixedClock))
}

func TestValidator_Rules(t *testing.T) {
	v := loadValidator(t, formschema.Canonical)

	tests := []struct {
		name   string
		field  string
		raw    string
		values map[string]string
		want   string
	}{
		{name: "required empty", field: "bedrooms", raw: "", want: validation.MsgRequired},
		{name: "required whitespace", field: "zipcode", raw: "   ", want: validation.MsgRequired},
		{name: "optional empty", field: "sqft_basement", raw: "", want: ""},
		{name: "zip ok", field: "zipcode", raw: "98001", want: ""},
		{name: "zip short", field: "zipcode", raw: "9800", want: "Must be a 5-digit number"},
		{name: "zip letters", field: "zipcode", raw: "98a01", want: "Must be a 5-digit number"},
		{name: "year lower bound", field: "yr_built", raw: "1800", want: ""},
		{name: "year too old", field: "yr_built", raw: "1799", want: "Must be between 1800 and 2026"},
		{name: "year current", field: "yr_built", raw: "2026", want: ""},
		{name: "year future", field: "yr_built", raw: "2027", want: "Must be between 1800 and 2026"},
		{name: "year not four digits", field: "yr_built", raw: "199", want: "Must be between 1800 and 2026"},
		{name: "year fractional", field: "yr_built", raw: "1995.5", want: "Must be between 1800 and 2026"},
		{name: "renovation never", field: "yr_renovated", raw: "0", values: map[string]string{"yr_built": "1995"}, want: ""},
		{name: "renovation after built", field: "yr_renovated", raw: "2005", values: map[string]string{"yr_built": "1995"}, want: ""},
		{name: "renovation before built", field: "yr_renovated", raw: "1990", values: map[string]string{"yr_built": "1995"}, want: "Must be between 1995 and 2026"},
		{name: "renovation future", field: "yr_renovated", raw: "2030", values: map[string]string{"yr_built": "1995"}, want: "Must be between 1800 and 2026"},
		{name: "renovation without built", field: "yr_renovated", raw: "1990", want: ""},
		{name: "half step whole", field: "bathrooms", raw: "2", want: ""},
		{name: "half step half", field: "bathrooms", raw: "2.5", want: ""},
		{name: "half step other fraction", field: "bathrooms", raw: "2.3", want: validation.MsgHalfStep},
		{name: "half step negative", field: "bedrooms", raw: "-1", want: "Must be 0 or greater"},
		{name: "floors below one", field: "floors", raw: "0.5", want: "Must be 1 or greater"},
		{name: "floors ok", field: "floors", raw: "1.5", want: ""},
		{name: "area negative", field: "sqft_lot", raw: "-5", want: "Must be 0 or greater"},
		{name: "area large", field: "sqft_lot", raw: "1000000", want: ""},
		{name: "not a number", field: "sqft_living", raw: "lots", want: validation.MsgNotANumber},
		{name: "nan rejected", field: "sqft_living", raw: "NaN", want: validation.MsgNotANumber},
		{name: "condition in range", field: "condition", raw: "5", want: ""},
		{name: "condition above", field: "condition", raw: "6", want: "Must be between 1 and 5"},
		{name: "condition fractional", field: "condition", raw: "3.5", want: validation.MsgWholeNumber},
		{name: "grade above", field: "grade", raw: "14", want: "Must be between 1 and 13"},
		{name: "view in range", field: "view", raw: "0", want: ""},
		{name: "view above", field: "view", raw: "5", want: "Must be between 0 and 4"},
		{name: "waterfront option", field: "waterfront", raw: "1", want: ""},
		{name: "waterfront invalid", field: "waterfront", raw: "2", want: "Must be one of 0, 1"},
		{name: "airport distance decimal", field: "airport_distance", raw: "10.5", want: ""},
		{name: "unknown field", field: "pool", raw: "yes", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := v.Validate(tc.field, tc.raw, tc.values)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("message mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidator_LegacyVariant(t *testing.T) {
	v := loadValidator(t, formschema.Legacy)

	cases := map[string]string{
		"123456": "",
		"12345":  "Must be a 6-digit number",
		"12a456": "Must be a 6-digit number",
	}
	for raw, want := range cases {
		if got := v.Validate("zipcode", raw, nil); got != want {
			t.Fatalf("zipcode %q: want %q, got %q", raw, want, got)
		}
	}

	if got := v.Validate("condition", "10", nil); got != "" {
		t.Fatalf("legacy condition scale should accept 10, got %q", got)
	}
	if got := v.Validate("condition", "11", nil); got != "Must be between 1 and 10" {
		t.Fatalf("unexpected legacy condition message %q", got)
	}
}

func TestValidator_RequiredThenCorrected(t *testing.T) {
	v := loadValidator(t, formschema.Canonical)
	for _, name := range []string{"zipcode", "yr_built", "sqft_lot", "sqft_living", "bedrooms", "bathrooms", "floors", "condition", "grade"} {
		spec, ok := v.Spec(name)
		if !ok || !spec.Required {
			t.Fatalf("expected %s to be required", name)
		}
		if got := v.Validate(name, "", nil); got != validation.MsgRequired {
			t.Fatalf("%s: expected required message, got %q", name, got)
		}
	}

	sample := map[string]string{
		"zipcode":     "98001",
		"yr_built":    "1995",
		"sqft_lot":    "5000",
		"sqft_living": "1800",
		"bedrooms":    "3",
		"bathrooms":   "2",
		"floors":      "1",
		"condition":   "3",
		"grade":       "7",
	}
	for name, raw := range sample {
		if got := v.Validate(name, raw, sample); got != "" {
			t.Fatalf("%s=%s: expected valid, got %q", name, raw, got)
		}
	}
}

func TestValidator_ValidateFields(t *testing.T) {
	v := loadValidator(t, formschema.Canonical)
	values := map[string]string{
		"zipcode":     "98001",
		"yr_built":    "1799",
		"sqft_living": "1800",
	}
	got := v.ValidateFields([]string{"zipcode", "yr_built", "sqft_lot", "sqft_living"}, values)
	want := model.Errors{
		"yr_built": "Must be between 1800 and 2026",
		"sqft_lot": validation.MsgRequired,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestField_YearCapComesFromContext(t *testing.T) {
	spec := model.FieldSpec{Name: "yr_built", Kind: model.FieldKindYear, Required: true}

	if got := validation.Field(spec, "2031", validation.Context{CurrentYear: 2030}); got != "Must be between 1800 and 2030" {
		t.Fatalf("expected the context year to cap, got %q", got)
	}
	// without a current year the result must not depend on the wall clock
	if got := validation.Field(spec, "2500", validation.Context{}); got != "" {
		t.Fatalf("expected no implicit cap, got %q", got)
	}
	if got := validation.Field(spec, "1799", validation.Context{}); got != "Must be between 1800 and 9999" {
		t.Fatalf("expected lower bound message, got %q", got)
	}

	limit := 2000.0
	capped := spec
	capped.Max = &limit
	if got := validation.Field(capped, "2001", validation.Context{}); got != "Must be between 1800 and 2000" {
		t.Fatalf("expected Max to cap, got %q", got)
	}
}

func TestCheckSchema(t *testing.T) {
	ok := validation.CheckSchema([]byte(`name: tiny
steps:
  - label: One
    fields: [grade]
fields:
  - name: grade
    kind: integer
    required: true
`), "tiny.yaml")
	if !ok.Valid || ok.Name != "tiny" {
		t.Fatalf("expected valid result, got %#v", ok)
	}

	bad := validation.CheckSchema([]byte(`name: tiny
steps:
  - label: One
    fields: [grade]
fields:
  - name: grade
    kind: integer
  - name: view
    kind: integer
`), "tiny.yaml")
	if bad.Valid {
		t.Fatalf("expected invalid result")
	}
	want := []validation.SchemaIssue{{
		Field:   "view",
		Message: `schema "tiny": field "view" is not reachable from any step`,
	}}
	if diff := cmp.Diff(want, bad.Issues); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}
