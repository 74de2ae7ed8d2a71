// Package homeval wires the form schema, validator, prediction client and
// history store into one App. Callers that need finer control can use the
// packages under pkg/ directly.
package homeval

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/goliatone/go-homeval/pkg/blobstore"
	"github.com/goliatone/go-homeval/pkg/formschema"
	"github.com/goliatone/go-homeval/pkg/history"
	"github.com/goliatone/go-homeval/pkg/model"
	"github.com/goliatone/go-homeval/pkg/predict"
	"github.com/goliatone/go-homeval/pkg/submission"
	"github.com/goliatone/go-homeval/pkg/validation"
	"github.com/goliatone/go-homeval/pkg/wizard"
)

// Option customises App construction.
type Option func(*settings)

type settings struct {
	schemaRef  string
	schema     *model.Schema
	baseURL    string
	timeout    time.Duration
	contract   bool
	client     predict.Client
	blob       blobstore.Config
	blobStore  blobstore.Store
	historyKey string
	linger     time.Duration
	currency   submission.Currency
	registerer prometheus.Registerer
	logger     *zap.Logger
	now        func() time.Time
}

// WithSchema selects a bundled schema by name ("canonical", "legacy",
// "king-county", "pincode") or a schema file path.
func WithSchema(ref string) Option {
	return func(s *settings) {
		s.schemaRef = ref
	}
}

// WithSchemaValue uses an already loaded schema.
func WithSchemaValue(schema model.Schema) Option {
	return func(s *settings) {
		s.schema = &schema
	}
}

// WithAPI configures the prediction service endpoint and request timeout.
func WithAPI(baseURL string, timeout time.Duration) Option {
	return func(s *settings) {
		s.baseURL = baseURL
		s.timeout = timeout
	}
}

// WithContract toggles request/response checks against the bundled OpenAPI
// document.
func WithContract(enabled bool) Option {
	return func(s *settings) {
		s.contract = enabled
	}
}

// WithClient injects a prediction client, bypassing the HTTP client setup.
func WithClient(client predict.Client) Option {
	return func(s *settings) {
		s.client = client
	}
}

// WithBlobConfig selects the history backend.
func WithBlobConfig(cfg blobstore.Config) Option {
	return func(s *settings) {
		s.blob = cfg
	}
}

// WithBlobStore injects an opened backend. The App closes it on Close.
func WithBlobStore(store blobstore.Store) Option {
	return func(s *settings) {
		s.blobStore = store
	}
}

// WithHistory sets the snapshot key and how long removed records linger.
func WithHistory(key string, linger time.Duration) Option {
	return func(s *settings) {
		s.historyKey = key
		s.linger = linger
	}
}

// WithCurrency converts service prices for display and storage.
func WithCurrency(code string, rate float64) Option {
	return func(s *settings) {
		s.currency = submission.Currency{Code: code, Rate: rate}
	}
}

// WithRegisterer registers client metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *settings) {
		s.registerer = reg
	}
}

// WithLogger attaches a logger. Defaults to zap.L().
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for year validation and record times.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// App holds the long-lived components of one configured installation.
type App struct {
	Schema    model.Schema
	Validator *validation.Validator
	Client    predict.Client
	Records   *submission.RecordBuilder
	History   *history.Store

	blob   blobstore.Store
	logger *zap.Logger
}

// New resolves the schema, opens the history backend and builds the client.
func New(ctx context.Context, options ...Option) (*App, error) {
	s := &settings{
		baseURL:    predict.DefaultBaseURL,
		timeout:    predict.DefaultTimeout,
		historyKey: history.DefaultKey,
		linger:     history.DefaultLinger,
		currency:   submission.Currency{Code: submission.BaseCurrency, Rate: 1},
		logger:     zap.L(),
		now:        time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}

	schema, err := s.resolveSchema()
	if err != nil {
		return nil, err
	}
	if schema.Deprecated {
		s.logger.Warn("using deprecated form schema", zap.String("schema", schema.Name))
	}

	client, err := s.buildClient(ctx)
	if err != nil {
		return nil, err
	}

	blob := s.blobStore
	if blob == nil {
		if s.blob.Logger == nil {
			s.blob.Logger = s.logger.Named("blobstore")
		}
		blob, err = blobstore.Open(ctx, s.blob)
		if err != nil {
			return nil, fmt.Errorf("homeval: open history backend: %w", err)
		}
	}

	store, err := history.Open(ctx, blob,
		history.WithKey(s.historyKey),
		history.WithLinger(s.linger),
		history.WithLogger(s.logger.Named("history")),
	)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}

	return &App{
		Schema:    schema,
		Validator: validation.New(schema, validation.WithClock(s.now)),
		Client:    client,
		Records: submission.NewRecordBuilder(
			submission.WithCurrency(s.currency),
			submission.WithRecordClock(s.now),
		),
		History: store,
		blob:    blob,
		logger:  s.logger,
	}, nil
}

func (s *settings) resolveSchema() (model.Schema, error) {
	if s.schema != nil {
		if err := s.schema.Validate(); err != nil {
			return model.Schema{}, fmt.Errorf("homeval: %w", err)
		}
		return *s.schema, nil
	}
	schema, err := formschema.Resolve(s.schemaRef)
	if err != nil {
		return model.Schema{}, fmt.Errorf("homeval: resolve schema: %w", err)
	}
	return schema, nil
}

func (s *settings) buildClient(ctx context.Context) (predict.Client, error) {
	if s.client != nil {
		return s.client, nil
	}
	opts := []predict.Option{
		predict.WithBaseURL(s.baseURL),
		predict.WithHTTPClient(&http.Client{Timeout: s.timeout}),
		predict.WithLogger(s.logger.Named("predict")),
		predict.WithClock(s.now),
	}
	if s.registerer != nil {
		opts = append(opts, predict.WithMetrics(predict.NewMetrics(s.registerer)))
	}
	if s.contract {
		contract, err := predict.DefaultContract(ctx)
		if err != nil {
			return nil, fmt.Errorf("homeval: load api contract: %w", err)
		}
		opts = append(opts, predict.WithContract(contract))
	}
	return predict.NewHTTPClient(opts...), nil
}

// NewWizard starts a form session over the App's schema, validator and
// history.
func (a *App) NewWizard(opts ...wizard.Option) (*wizard.Controller, error) {
	base := []wizard.Option{
		wizard.WithValidator(a.Validator),
		wizard.WithHistory(a.History),
		wizard.WithRecordBuilder(a.Records),
		wizard.WithLogger(a.logger.Named("wizard")),
	}
	return wizard.New(a.Schema, a.Client, append(base, opts...)...)
}

// Prefill turns a stored record back into raw form values so a previous
// prediction can be edited and resubmitted.
func (a *App) Prefill(rec model.PredictionRecord) map[string]string {
	values := make(map[string]string, len(a.Schema.Fields))
	features := rec.InputFeatures.Map()
	for _, field := range a.Schema.Fields {
		if v, ok := features[field.Name]; ok {
			values[field.Name] = formatFeature(v)
		}
	}
	return values
}

// formatFeature renders a feature the way a user would type it; large floats
// must not switch to exponent form.
func formatFeature(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case string:
		return n
	default:
		return fmt.Sprint(v)
	}
}

// Close stops history timers and closes the backend.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return errors.Join(a.History.Close(), a.blob.Close())
}
