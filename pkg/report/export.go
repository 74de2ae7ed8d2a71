package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-homeval/pkg/model"
)

// Format selects the export serialization.
type Format string

const (
	FormatHTML Format = "html"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// DefaultTitle heads reports when no title is given.
const DefaultTitle = "Prediction history"

// ErrUnknownFormat is returned for unsupported export formats.
var ErrUnknownFormat = errors.New("report: unknown format")

// ParseFormat accepts html, text (or txt) and json, case-insensitively.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "text", "txt":
		return FormatText, nil
	case "html", "htm":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
}

// Options control a single export.
type Options struct {
	Format      Format
	Title       string
	Note        string
	GeneratedAt time.Time
}

// Exporter writes prediction histories as reports.
type Exporter struct {
	engine *Engine
	now    func() time.Time
}

// NewExporter uses engine for html and text output. A nil engine selects the
// bundled templates.
func NewExporter(engine *Engine) (*Exporter, error) {
	if engine == nil {
		var err error
		engine, err = NewEngine()
		if err != nil {
			return nil, err
		}
	}
	return &Exporter{engine: engine, now: time.Now}, nil
}

// Export writes records, newest first as given. Records flagged for removal
// are left out.
func (x *Exporter) Export(w io.Writer, records []model.PredictionRecord, opts Options) error {
	kept := make([]model.PredictionRecord, 0, len(records))
	for _, rec := range records {
		if !rec.PendingRemoval {
			kept = append(kept, rec)
		}
	}

	format := opts.Format
	if format == "" {
		format = FormatText
	}
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(kept); err != nil {
			return fmt.Errorf("report: encode json: %w", err)
		}
		return nil
	}

	var name string
	switch format {
	case FormatHTML:
		name = "history.html"
	case FormatText:
		name = "history.txt"
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = x.now()
	}
	title := sanitizeText(opts.Title)
	if title == "" {
		title = DefaultTitle
	}
	note := sanitizeText(opts.Note)
	if format == FormatHTML {
		note = sanitizeNote(opts.Note)
	}

	rows := make([]map[string]any, 0, len(kept))
	for _, rec := range kept {
		rows = append(rows, row(rec))
	}
	data := map[string]any{
		"title":        title,
		"note":         note,
		"generated_at": generated.UTC().Format("2006-01-02 15:04 MST"),
		"rows":         rows,
	}
	if _, err := x.engine.RenderTemplate(name, data, w); err != nil {
		return err
	}
	return nil
}

func row(rec model.PredictionRecord) map[string]any {
	f := rec.InputFeatures
	date := ""
	if !rec.CreatedAt.IsZero() {
		date = rec.CreatedAt.UTC().Format("2006-01-02 15:04")
	}
	currency := rec.Currency
	if currency == "" {
		currency = "USD"
	}
	return map[string]any{
		"id":          rec.ID,
		"date":        date,
		"zipcode":     f.Zipcode,
		"bedrooms":    strconv.FormatFloat(f.Bedrooms, 'f', -1, 64),
		"bathrooms":   strconv.FormatFloat(f.Bathrooms, 'f', -1, 64),
		"sqft_living": f.SqftLiving,
		"sqft_lot":    f.SqftLot,
		"yr_built":    f.YrBuilt,
		"condition":   f.Condition,
		"grade":       f.Grade,
		"price":       rec.PredictedPrice,
		"low":         rec.PriceRangeLow,
		"high":        rec.PriceRangeHigh,
		"currency":    currency,
		"confidence":  rec.Confidence,
	}
}
