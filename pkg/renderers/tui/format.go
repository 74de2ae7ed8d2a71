package tui

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/goliatone/go-homeval/pkg/model"
	"github.com/goliatone/go-homeval/pkg/submission"
)

// RecordSummary is the one-line description used in history listings.
func RecordSummary(rec model.PredictionRecord) string {
	f := rec.InputFeatures
	date := "unknown date"
	if !rec.CreatedAt.IsZero() {
		date = rec.CreatedAt.Format("2006-01-02 15:04")
	}
	zip := f.Zipcode
	if zip == "" {
		zip = "-----"
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%s  %s  %v bd / %v ba  %.0f sqft  %s",
		date, zip, f.Bedrooms, f.Bathrooms, f.SqftLiving, submission.FormatPrice(rec.PredictedPrice, rec.Currency))
}

// ResultLines describes a completed prediction.
func ResultLines(rec model.PredictionRecord) []string {
	price := func(v float64) string { return submission.FormatPrice(v, rec.Currency) }
	return []string{
		"Estimated price: " + price(rec.PredictedPrice),
		"Range: " + price(rec.PriceRangeLow) + " to " + price(rec.PriceRangeHigh),
		message.NewPrinter(language.English).Sprintf("Confidence: %.0f%%", rec.Confidence),
	}
}
