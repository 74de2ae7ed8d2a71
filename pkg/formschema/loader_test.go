package formschema_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-homeval/pkg/formschema"
	"github.com/goliatone/go-homeval/pkg/model"
)

func TestLoadDefault_BundledSchemas(t *testing.T) {
	store, err := formschema.LoadDefault()
	if err != nil {
		t.Fatalf("load default: %v", err)
	}

	if diff := cmp.Diff([]string{formschema.Canonical, formschema.Legacy}, store.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	canonical, err := store.Schema(formschema.Canonical)
	if err != nil {
		t.Fatalf("canonical: %v", err)
	}
	if canonical.Deprecated {
		t.Fatalf("canonical schema must not be deprecated")
	}
	zip, ok := canonical.Field("zipcode")
	if !ok || zip.Digits != 5 {
		t.Fatalf("expected 5-digit zipcode, got %+v", zip)
	}
	condition, _ := canonical.Field("condition")
	if condition.Max == nil || *condition.Max != 5 {
		t.Fatalf("expected condition max 5, got %+v", condition.Max)
	}

	wantLabels := []string{"Location & Basic Info", "Property Details", "Additional Features"}
	var gotLabels []string
	for idx, step := range canonical.Steps {
		if step.Index != idx {
			t.Fatalf("step %d has index %d", idx, step.Index)
		}
		gotLabels = append(gotLabels, step.Label)
	}
	if diff := cmp.Diff(wantLabels, gotLabels); diff != "" {
		t.Fatalf("step labels mismatch (-want +got):\n%s", diff)
	}

	legacy, err := store.Schema(formschema.Legacy)
	if err != nil {
		t.Fatalf("legacy: %v", err)
	}
	if !legacy.Deprecated {
		t.Fatalf("legacy schema should be flagged deprecated")
	}
	pin, _ := legacy.Field("zipcode")
	if pin.Digits != 6 {
		t.Fatalf("expected 6-digit pincode, got %d", pin.Digits)
	}
	legacyCondition, _ := legacy.Field("condition")
	if legacyCondition.Max == nil || *legacyCondition.Max != 10 {
		t.Fatalf("expected legacy condition max 10")
	}
}

func TestLoadDefault_EveryFeatureCovered(t *testing.T) {
	schema, err := formschema.Resolve("")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	names := schema.FieldNames()
	if diff := cmp.Diff(len(model.FeatureKeys()), len(names)); diff != "" {
		t.Fatalf("field count mismatch (-want +got):\n%s", diff)
	}
	for _, key := range model.FeatureKeys() {
		if _, ok := schema.Field(key); !ok {
			t.Fatalf("feature %q missing from canonical schema", key)
		}
	}
}

func TestResolve_Aliases(t *testing.T) {
	tests := map[string]string{
		"canonical": formschema.Canonical,
		"LEGACY":    formschema.Legacy,
		"pincode":   formschema.Legacy,
	}
	for ref, want := range tests {
		schema, err := formschema.Resolve(ref)
		if err != nil {
			t.Fatalf("resolve %q: %v", ref, err)
		}
		if diff := cmp.Diff(want, schema.Name); diff != "" {
			t.Fatalf("resolve %q mismatch (-want +got):\n%s", ref, diff)
		}
	}
}

func TestLoadFS_RejectsDuplicatesAndInvalid(t *testing.T) {
	doc := `name: dup
steps:
  - label: Only
    fields: [zipcode]
fields:
  - name: zipcode
    kind: postal-code
    digits: 5
    required: true
`
	_, err := formschema.LoadFS(fstest.MapFS{
		"a.yaml": {Data: []byte(doc)},
		"b.yml":  {Data: []byte(doc)},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate schema") {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	broken := strings.Replace(doc, "digits: 5", "digits: 0", 1)
	_, err = formschema.LoadFS(fstest.MapFS{"broken.yaml": {Data: []byte(broken)}})
	if err == nil || !strings.Contains(err.Error(), "digit count") {
		t.Fatalf("expected validation error, got %v", err)
	}

	store, err := formschema.LoadFS(fstest.MapFS{"notes.txt": {Data: []byte("ignored")}})
	if err != nil {
		t.Fatalf("non-schema files should be skipped: %v", err)
	}
	if _, err := store.Schema("dup"); !errors.Is(err, formschema.ErrUnknownSchema) {
		t.Fatalf("expected ErrUnknownSchema, got %v", err)
	}
}

func TestParse_JSONDocument(t *testing.T) {
	raw := `{"name":"json-form","steps":[{"label":"A","fields":["grade"]}],"fields":[{"name":"grade","kind":"integer","min":1,"max":13,"required":true}]}`
	schema, err := formschema.Parse([]byte(raw), "inline.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	grade, ok := schema.Field("grade")
	if !ok || grade.Max == nil || *grade.Max != 13 {
		t.Fatalf("unexpected grade spec %+v", grade)
	}
}

func TestResolve_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	doc := `name: custom
steps:
  - label: Only
    fields: [view]
fields:
  - name: view
    kind: integer
    min: 0
    max: 4
    required: true
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	schema, err := formschema.Resolve(path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if schema.Name != "custom" {
		t.Fatalf("unexpected schema %q", schema.Name)
	}

	if _, err := formschema.Resolve("missing-variant"); !errors.Is(err, formschema.ErrUnknownSchema) {
		t.Fatalf("expected ErrUnknownSchema, got %v", err)
	}
}
