package submission

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-homeval/pkg/model"
)

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

func vectorValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return structValidator
}

// ApplyDefaults fills empty optional fields. DefaultFrom copies the raw value
// of another field and takes precedence over a literal Default. Only empty
// values are replaced; an explicit 0 is kept.
func ApplyDefaults(schema model.Schema, values map[string]string) map[string]string {
	out := make(map[string]string, len(schema.Fields))
	for _, field := range schema.Fields {
		out[field.Name] = strings.TrimSpace(values[field.Name])
	}
	for _, field := range schema.Fields {
		if out[field.Name] != "" {
			continue
		}
		switch {
		case field.DefaultFrom != "" && out[field.DefaultFrom] != "":
			out[field.Name] = out[field.DefaultFrom]
		case field.Default != "":
			out[field.Name] = field.Default
		}
	}
	return out
}

// BuildFeatureVector derives the complete feature vector from raw form
// values: defaults are applied, values are coerced to their numeric types and
// the result is checked against the vector's struct constraints.
func BuildFeatureVector(schema model.Schema, values map[string]string) (model.FeatureVector, error) {
	filled := ApplyDefaults(schema, values)

	loose := make(map[string]any, len(filled))
	for name, raw := range filled {
		loose[name] = raw
	}
	fv, err := model.FeatureVectorFromMap(loose)
	if err != nil {
		return model.FeatureVector{}, fmt.Errorf("submission: %w", err)
	}

	if err := vectorValidator().Struct(fv); err != nil {
		return model.FeatureVector{}, fmt.Errorf("%w: %v", ErrInvalidVector, err)
	}
	return fv, nil
}
