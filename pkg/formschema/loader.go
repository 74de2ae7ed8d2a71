package formschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-homeval/pkg/model"
)

const (
	// Canonical names the schema used when nothing else is configured.
	Canonical = "king-county"
	// Legacy names the deprecated 6-digit pincode variant.
	Legacy = "pincode"
)

// ErrUnknownSchema is returned when a schema name is not present in a Store.
var ErrUnknownSchema = errors.New("formschema: unknown schema")

// Store holds validated schemas keyed by name.
type Store struct {
	schemas map[string]model.Schema
}

// LoadFS walks fsys and parses every JSON/YAML schema file. Each schema is
// validated before it is added; duplicate names are rejected.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{schemas: make(map[string]model.Schema)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("formschema: read %s: %w", path, err)
		}
		schema, err := Parse(data, path)
		if err != nil {
			return err
		}
		if _, exists := store.schemas[schema.Name]; exists {
			return fmt.Errorf("formschema: duplicate schema %q (file %s)", schema.Name, path)
		}
		store.schemas[schema.Name] = schema
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// LoadDefault loads the bundled schemas.
func LoadDefault() (*Store, error) {
	return LoadFS(EmbeddedFS())
}

// Resolve returns a schema by bundled name, or parses the file at ref when
// ref points to a JSON/YAML file on disk. An empty ref or "canonical" selects
// Canonical; "legacy" selects Legacy.
func Resolve(ref string) (model.Schema, error) {
	ref = strings.TrimSpace(ref)
	switch strings.ToLower(ref) {
	case "", "canonical":
		ref = Canonical
	case "legacy":
		ref = Legacy
	}
	if isSchemaFile(ref) {
		data, err := os.ReadFile(ref)
		if err != nil {
			return model.Schema{}, fmt.Errorf("formschema: read %s: %w", ref, err)
		}
		return Parse(data, ref)
	}
	store, err := LoadDefault()
	if err != nil {
		return model.Schema{}, err
	}
	return store.Schema(ref)
}

// Parse decodes a single schema document (JSON first, then YAML), assigns
// step indexes and validates the result.
func Parse(data []byte, source string) (model.Schema, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return model.Schema{}, fmt.Errorf("formschema: file %s is empty", source)
	}

	var schema model.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		schema = model.Schema{}
		if yerr := yaml.Unmarshal(data, &schema); yerr != nil {
			return model.Schema{}, fmt.Errorf("formschema: parse %s: invalid JSON or YAML: %w", source, yerr)
		}
	}

	schema.Name = strings.TrimSpace(schema.Name)
	for idx := range schema.Steps {
		schema.Steps[idx].Index = idx
	}
	if err := schema.Validate(); err != nil {
		return model.Schema{}, fmt.Errorf("formschema: %s: %w", source, err)
	}
	return schema, nil
}

// Schema returns the schema registered under name.
func (s *Store) Schema(name string) (model.Schema, error) {
	if s == nil {
		return model.Schema{}, ErrUnknownSchema
	}
	schema, ok := s.schemas[name]
	if !ok {
		return model.Schema{}, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
	return schema, nil
}

// Names lists the registered schema names in sorted order.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.schemas))
	for name := range s.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
