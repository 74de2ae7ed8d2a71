package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultConfidence is assumed when no confidence was reported.
	DefaultConfidence = 92.0
	// PriceRangeSpread is the relative half-width of a price range.
	PriceRangeSpread = 0.05
	// LegacyCurrency is the currency flat-layout records were priced in.
	LegacyCurrency = "INR"
)

// PredictionRecord is the persisted result of one completed prediction.
// Records are immutable once created; PendingRemoval is a transient view flag
// and never reaches the persisted snapshot.
type PredictionRecord struct {
	ID             string        `json:"id"`
	CreatedAt      time.Time     `json:"createdAt"`
	InputFeatures  FeatureVector `json:"inputFeatures"`
	PredictedPrice float64       `json:"predictedPrice"`
	PriceRangeLow  float64       `json:"priceRangeLow"`
	PriceRangeHigh float64       `json:"priceRangeHigh"`
	Confidence     float64       `json:"confidence"`
	Currency       string        `json:"currency,omitempty"`

	PendingRemoval bool `json:"-"`
}

// SameIdentity reports whether two records describe the same prediction: an
// exact ID match, or for ID-less records, identical input features.
func (r PredictionRecord) SameIdentity(other PredictionRecord) bool {
	if r.ID != "" || other.ID != "" {
		return r.ID == other.ID
	}
	return r.InputFeatures == other.InputFeatures
}

type recordAlias struct {
	ID             json.RawMessage            `json:"id"`
	CreatedAt      *time.Time                 `json:"createdAt"`
	InputFeatures  map[string]json.RawMessage `json:"inputFeatures"`
	PredictedPrice *float64                   `json:"predictedPrice"`
	PriceRangeLow  float64                    `json:"priceRangeLow"`
	PriceRangeHigh float64                    `json:"priceRangeHigh"`
	Confidence     float64                    `json:"confidence"`
	Currency       string                     `json:"currency"`

	// flat layout written by earlier releases
	Timestamp  string   `json:"timestamp"`
	Prediction *float64 `json:"prediction"`
}

// UnmarshalJSON accepts both the current nested layout and the older flat
// layout ({id, timestamp, prediction, <feature>...}). Flat records were
// priced in LegacyCurrency and never stored a range or confidence, so those
// take their defaults.
func (r *PredictionRecord) UnmarshalJSON(data []byte) error {
	var alias recordAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	id, err := decodeID(alias.ID)
	if err != nil {
		return err
	}

	out := PredictionRecord{
		ID:             id,
		PriceRangeLow:  alias.PriceRangeLow,
		PriceRangeHigh: alias.PriceRangeHigh,
		Confidence:     alias.Confidence,
		Currency:       alias.Currency,
	}

	switch {
	case alias.CreatedAt != nil:
		out.CreatedAt = *alias.CreatedAt
	case alias.Timestamp != "":
		if ts, err := time.Parse(time.RFC3339, alias.Timestamp); err == nil {
			out.CreatedAt = ts
		}
	}

	switch {
	case alias.PredictedPrice != nil:
		out.PredictedPrice = *alias.PredictedPrice
	case alias.Prediction != nil:
		out.PredictedPrice = *alias.Prediction
		out.applyLegacyDefaults()
	}

	features := alias.InputFeatures
	if features == nil {
		var flat map[string]json.RawMessage
		if err := json.Unmarshal(data, &flat); err != nil {
			return err
		}
		features = flat
	}
	fv, err := decodeFeatures(features)
	if err != nil {
		return err
	}
	out.InputFeatures = fv

	*r = out
	return nil
}

func (r *PredictionRecord) applyLegacyDefaults() {
	if r.Currency == "" {
		r.Currency = LegacyCurrency
	}
	if r.Confidence == 0 {
		r.Confidence = DefaultConfidence
	}
	if r.PriceRangeLow == 0 && r.PriceRangeHigh == 0 {
		r.PriceRangeLow = roundCents(r.PredictedPrice * (1 - PriceRangeSpread))
		r.PriceRangeHigh = roundCents(r.PredictedPrice * (1 + PriceRangeSpread))
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("model: record id has unsupported form %s", string(raw))
}

func decodeFeatures(raw map[string]json.RawMessage) (FeatureVector, error) {
	values := make(map[string]any, len(featureKeys))
	for _, key := range featureKeys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return FeatureVector{}, fmt.Errorf("model: decode feature %q: %w", key, err)
		}
		if s, ok := v.(string); ok && key != "zipcode" {
			if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
				continue
			}
		}
		values[key] = v
	}
	return FeatureVectorFromMap(values)
}
