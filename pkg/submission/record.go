package submission

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-homeval/pkg/model"
	"github.com/goliatone/go-homeval/pkg/predict"
)

const (
	// DefaultConfidence is reported when the service omits confidence_score.
	DefaultConfidence = model.DefaultConfidence
	// RangeSpread is the relative half-width of the reported price range.
	RangeSpread = model.PriceRangeSpread
	// BaseCurrency is the currency the prediction service answers in.
	BaseCurrency = "USD"
)

// Currency converts service prices (BaseCurrency) for display and storage.
type Currency struct {
	Code string
	Rate float64
}

// Convert applies the rate; a non-positive rate leaves the amount unchanged.
func (c Currency) Convert(amount float64) float64 {
	if c.Rate <= 0 {
		return amount
	}
	return amount * c.Rate
}

// RecordOption configures a RecordBuilder.
type RecordOption func(*RecordBuilder)

// WithCurrency sets the display currency.
func WithCurrency(c Currency) RecordOption {
	return func(b *RecordBuilder) {
		if strings.TrimSpace(c.Code) != "" {
			b.currency = Currency{Code: strings.ToUpper(strings.TrimSpace(c.Code)), Rate: c.Rate}
		}
	}
}

// WithIDGenerator replaces the UUIDv7 generator.
func WithIDGenerator(fn func() (string, error)) RecordOption {
	return func(b *RecordBuilder) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// WithRecordClock overrides the creation time used when the response carries
// no timestamp.
func WithRecordClock(now func() time.Time) RecordOption {
	return func(b *RecordBuilder) {
		if now != nil {
			b.now = now
		}
	}
}

// RecordBuilder creates PredictionRecords from successful predictions.
type RecordBuilder struct {
	currency Currency
	newID    func() (string, error)
	now      func() time.Time
}

// NewRecordBuilder returns a builder reporting prices in BaseCurrency unless
// configured otherwise.
func NewRecordBuilder(opts ...RecordOption) *RecordBuilder {
	b := &RecordBuilder{
		currency: Currency{Code: BaseCurrency, Rate: 1},
		newID:    newTimeOrderedID,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Currency returns the configured display currency.
func (b *RecordBuilder) Currency() Currency {
	return b.currency
}

// Build assembles the record: converted price, a ±RangeSpread range, the
// reported or default confidence and a time-ordered ID.
func (b *RecordBuilder) Build(features model.FeatureVector, result predict.Result) (model.PredictionRecord, error) {
	id, err := b.newID()
	if err != nil {
		return model.PredictionRecord{}, fmt.Errorf("submission: generate record id: %w", err)
	}

	price := b.currency.Convert(result.Prediction)
	confidence := DefaultConfidence
	if result.Confidence != nil && *result.Confidence > 0 {
		confidence = *result.Confidence
	}
	created := result.Timestamp
	if created.IsZero() {
		created = b.now()
	}

	return model.PredictionRecord{
		ID:             id,
		CreatedAt:      created.UTC(),
		InputFeatures:  features,
		PredictedPrice: price,
		PriceRangeLow:  roundCents(price * (1 - RangeSpread)),
		PriceRangeHigh: roundCents(price * (1 + RangeSpread)),
		Confidence:     confidence,
		Currency:       b.currency.Code,
	}, nil
}

func newTimeOrderedID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
