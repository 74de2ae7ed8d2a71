package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FeatureVector is the complete set of property attributes sent to the
// prediction endpoint. JSON names match the remote API. The validate tags are
// a coarse guard applied after per-field validation and defaulting.
type FeatureVector struct {
	Bedrooms        float64 `json:"bedrooms" validate:"gte=0"`
	Bathrooms       float64 `json:"bathrooms" validate:"gte=0"`
	SqftLiving      float64 `json:"sqft_living" validate:"gte=0"`
	SqftLot         float64 `json:"sqft_lot" validate:"gte=0"`
	Floors          float64 `json:"floors" validate:"gte=1"`
	Waterfront      int     `json:"waterfront" validate:"oneof=0 1"`
	View            int     `json:"view" validate:"gte=0"`
	Condition       int     `json:"condition" validate:"gte=1"`
	Grade           int     `json:"grade" validate:"gte=1"`
	SqftAbove       float64 `json:"sqft_above" validate:"gte=0"`
	SqftBasement    float64 `json:"sqft_basement" validate:"gte=0"`
	YrBuilt         int     `json:"yr_built" validate:"gte=1800"`
	YrRenovated     int     `json:"yr_renovated" validate:"gte=0"`
	Zipcode         string  `json:"zipcode" validate:"required,numeric"`
	SqftLiving15    float64 `json:"sqft_living15" validate:"gte=0"`
	SqftLot15       float64 `json:"sqft_lot15" validate:"gte=0"`
	SchoolsNearby   int     `json:"schools_nearby" validate:"gte=0"`
	AirportDistance float64 `json:"airport_distance" validate:"gte=0"`
}

// FeatureVectorFromMap decodes loosely typed values (numbers, numeric strings)
// into a FeatureVector. Unknown keys are rejected so schema drift surfaces
// early instead of being silently dropped.
func FeatureVectorFromMap(values map[string]any) (FeatureVector, error) {
	normalized := make(map[string]any, len(values))
	for key, value := range values {
		if !isFeatureKey(key) {
			return FeatureVector{}, fmt.Errorf("model: unknown feature %q", key)
		}
		v, err := normalizeFeature(key, value)
		if err != nil {
			return FeatureVector{}, err
		}
		normalized[key] = v
	}

	raw, err := json.Marshal(normalized)
	if err != nil {
		return FeatureVector{}, fmt.Errorf("model: encode features: %w", err)
	}
	var fv FeatureVector
	if err := json.Unmarshal(raw, &fv); err != nil {
		return FeatureVector{}, fmt.Errorf("model: decode features: %w", err)
	}
	return fv, nil
}

// Map returns the vector keyed by its JSON feature names.
func (f FeatureVector) Map() map[string]any {
	return map[string]any{
		"bedrooms":         f.Bedrooms,
		"bathrooms":        f.Bathrooms,
		"sqft_living":      f.SqftLiving,
		"sqft_lot":         f.SqftLot,
		"floors":           f.Floors,
		"waterfront":       f.Waterfront,
		"view":             f.View,
		"condition":        f.Condition,
		"grade":            f.Grade,
		"sqft_above":       f.SqftAbove,
		"sqft_basement":    f.SqftBasement,
		"yr_built":         f.YrBuilt,
		"yr_renovated":     f.YrRenovated,
		"zipcode":          f.Zipcode,
		"sqft_living15":    f.SqftLiving15,
		"sqft_lot15":       f.SqftLot15,
		"schools_nearby":   f.SchoolsNearby,
		"airport_distance": f.AirportDistance,
	}
}

// FeatureKeys lists the feature names in wire order.
func FeatureKeys() []string {
	return append([]string(nil), featureKeys...)
}

var featureKeys = []string{
	"bedrooms", "bathrooms", "sqft_living", "sqft_lot", "floors", "waterfront",
	"view", "condition", "grade", "sqft_above", "sqft_basement", "yr_built",
	"yr_renovated", "zipcode", "sqft_living15", "sqft_lot15", "schools_nearby",
	"airport_distance",
}

var integerFeatures = map[string]struct{}{
	"waterfront": {}, "view": {}, "condition": {}, "grade": {},
	"yr_built": {}, "yr_renovated": {}, "schools_nearby": {},
}

func isFeatureKey(key string) bool {
	for _, k := range featureKeys {
		if k == key {
			return true
		}
	}
	return false
}

func normalizeFeature(key string, value any) (any, error) {
	if key == "zipcode" {
		switch v := value.(type) {
		case string:
			return strings.TrimSpace(v), nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case nil:
			return "", nil
		default:
			return nil, fmt.Errorf("model: feature %q has unsupported type %T", key, value)
		}
	}

	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("model: feature %q is not numeric: %q", key, v)
		}
		n = parsed
	case nil:
		return 0, nil
	default:
		return nil, fmt.Errorf("model: feature %q has unsupported type %T", key, value)
	}

	if _, ok := integerFeatures[key]; ok {
		if n != float64(int64(n)) {
			return nil, fmt.Errorf("model: feature %q must be a whole number, got %v", key, n)
		}
		return int64(n), nil
	}
	return n, nil
}
