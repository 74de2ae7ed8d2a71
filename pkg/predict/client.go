package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/goliatone/go-homeval/pkg/model"
)

const (
	// DefaultBaseURL matches the development server of the prediction API.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout bounds a single call when no *http.Client is supplied.
	DefaultTimeout = 15 * time.Second

	maxBodyBytes = 1 << 20

	outcomeOK        = "ok"
	outcomeNoReply   = "no_response"
	outcomeStatus    = "status_error"
	outcomeMalformed = "malformed"
)

// Result is a successful prediction. Confidence is nil when the service did
// not report one.
type Result struct {
	Prediction float64
	Currency   string
	Confidence *float64
	Timestamp  time.Time
}

// Client is the contract the step controller depends on.
type Client interface {
	Predict(ctx context.Context, features model.FeatureVector) (Result, error)
	Health(ctx context.Context) (map[string]any, error)
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithBaseURL points the client at another service root.
func WithBaseURL(base string) Option {
	return func(c *HTTPClient) {
		if trimmed := strings.TrimRight(strings.TrimSpace(base), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithHTTPClient overrides the transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger attaches a logger. Defaults to zap.L().
func WithLogger(logger *zap.Logger) Option {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records call counts and latency.
func WithMetrics(metrics *Metrics) Option {
	return func(c *HTTPClient) {
		c.metrics = metrics
	}
}

// WithContract validates outgoing requests and 200 responses.
func WithContract(contract *Contract) Option {
	return func(c *HTTPClient) {
		c.contract = contract
	}
}

// WithClock overrides the time source used when a response has no timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *HTTPClient) {
		if now != nil {
			c.now = now
		}
	}
}

// HTTPClient implements Client over JSON/HTTP.
type HTTPClient struct {
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
	metrics  *Metrics
	contract *Contract
	now      func() time.Time
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient constructs a client with the given options applied.
func NewHTTPClient(opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  zap.L(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type predictResponse struct {
	Prediction      *float64 `json:"prediction"`
	Currency        string   `json:"currency"`
	Timestamp       string   `json:"timestamp"`
	ConfidenceScore *float64 `json:"confidence_score"`
}

// Predict sends the feature vector to POST /predict exactly once.
func (c *HTTPClient) Predict(ctx context.Context, features model.FeatureVector) (Result, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return Result{}, &Error{Message: MsgRequestSetup, Err: eris.Wrap(err, "encode features")}
	}
	if err := c.contract.CheckRequest(body); err != nil {
		return Result{}, &Error{Message: MsgRequestSetup, Err: err}
	}

	started := time.Now()
	status, payload, err := c.do(ctx, http.MethodPost, "/predict", body)
	if err != nil {
		c.metrics.observe("predict", outcomeOf(err), started)
		c.logger.Warn("prediction request failed", zap.Int("status", status), zap.Error(err))
		return Result{}, err
	}

	if err := c.contract.CheckResponse(payload); err != nil {
		c.metrics.observe("predict", outcomeMalformed, started)
		c.logger.Warn("prediction response rejected by contract", zap.Error(err))
		return Result{}, &Error{Message: MsgInvalidResponse, Status: status, Err: err}
	}

	var decoded predictResponse
	if err := json.Unmarshal(payload, &decoded); err != nil || decoded.Prediction == nil {
		if err == nil {
			err = errors.New("prediction field missing")
		}
		c.metrics.observe("predict", outcomeMalformed, started)
		c.logger.Warn("prediction response malformed", zap.Error(err))
		return Result{}, &Error{Message: MsgInvalidResponse, Status: status, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}

	c.metrics.observe("predict", outcomeOK, started)
	result := Result{
		Prediction: *decoded.Prediction,
		Currency:   strings.TrimSpace(decoded.Currency),
		Confidence: decoded.ConfidenceScore,
		Timestamp:  parseTimestamp(decoded.Timestamp, c.now),
	}
	c.logger.Debug("prediction received",
		zap.Float64("prediction", result.Prediction),
		zap.String("currency", result.Currency),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// Health calls GET /health and returns the decoded body as is.
func (c *HTTPClient) Health(ctx context.Context) (map[string]any, error) {
	started := time.Now()
	status, payload, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		c.metrics.observe("health", outcomeOf(err), started)
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		c.metrics.observe("health", outcomeMalformed, started)
		return nil, &Error{Message: MsgInvalidResponse, Status: status, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	c.metrics.observe("health", outcomeOK, started)
	return out, nil
}

// do performs the round trip and converts transport failures and non-2xx
// statuses into *Error.
func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, &Error{Message: MsgRequestSetup, Err: eris.Wrap(err, "build request")}
	}
	req.Header.Set("Accept", jsonContentType)
	if body != nil {
		req.Header.Set("Content-Type", jsonContentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &Error{Message: MsgNoResponse, Err: eris.Wrapf(err, "%s %s", method, path)}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, &Error{Message: MsgNoResponse, Status: resp.StatusCode, Err: eris.Wrap(err, "read body")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure errorBody
		_ = json.Unmarshal(payload, &failure)
		return resp.StatusCode, payload, &Error{
			Message: failure.message(),
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	return resp.StatusCode, payload, nil
}

func outcomeOf(err error) string {
	var perr *Error
	if errors.As(err, &perr) && perr.Status != 0 {
		return outcomeStatus
	}
	return outcomeNoReply
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp accepts RFC 3339 and the zone-less ISO form produced by
// Python's isoformat. Zone-less values are read as UTC. Unparseable or
// missing values fall back to now.
func parseTimestamp(raw string, now func() time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		for _, layout := range timestampLayouts {
			if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
				return ts
			}
		}
	}
	return now().UTC()
}
