package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/goliatone/go-homeval/pkg/model"
)

func sampleFeatures() model.FeatureVector {
	return model.FeatureVector{
		Bedrooms:        3,
		Bathrooms:       2,
		SqftLiving:      1800,
		SqftLot:         5000,
		Floors:          1,
		Condition:       3,
		Grade:           7,
		SqftAbove:       1800,
		YrBuilt:         1995,
		Zipcode:         "98001",
		SqftLiving15:    1800,
		SqftLot15:       5000,
		SchoolsNearby:   5,
		AirportDistance: 10.5,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	base := []Option{WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithLogger(zap.NewNop())}
	return NewHTTPClient(append(base, opts...)...)
}

func TestPredict_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		var got model.FeatureVector
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if diff := cmp.Diff(sampleFeatures(), got); diff != "" {
			t.Errorf("body mismatch (-want +got):\n%s", diff)
		}
		fmt.Fprint(w, `{"prediction": 450000, "currency": "USD", "timestamp": "2025-03-01T10:30:00.123456"}`)
	})

	result, err := client.Predict(context.Background(), sampleFeatures())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	want := Result{
		Prediction: 450000,
		Currency:   "USD",
		Timestamp:  time.Date(2025, 3, 1, 10, 30, 0, 123456000, time.UTC),
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestPredict_ConfidenceAndMissingTimestamp(t *testing.T) {
	fixed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"prediction": 1000, "confidence_score": 87.5}`)
	}, WithClock(func() time.Time { return fixed }))

	result, err := client.Predict(context.Background(), sampleFeatures())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if result.Confidence == nil || *result.Confidence != 87.5 {
		t.Fatalf("expected confidence 87.5, got %v", result.Confidence)
	}
	if !result.Timestamp.Equal(fixed) {
		t.Fatalf("expected clock fallback, got %v", result.Timestamp)
	}
}

func TestPredict_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "message wins", status: http.StatusServiceUnavailable, body: `{"error": "Model not loaded", "message": "The prediction model is not available"}`, want: "The prediction model is not available"},
		{name: "error fallback", status: http.StatusInternalServerError, body: `{"error": "Prediction failed"}`, want: "Prediction failed"},
		{name: "generic fallback", status: http.StatusBadRequest, body: `bad request`, want: MsgGeneric},
		{name: "malformed success", status: http.StatusOK, body: `not json`, want: MsgInvalidResponse},
		{name: "missing prediction", status: http.StatusOK, body: `{"price": 1}`, want: MsgInvalidResponse},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})
			_, err := client.Predict(context.Background(), sampleFeatures())
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := UserMessage(err); got != tc.want {
				t.Fatalf("message mismatch: want %q, got %q", tc.want, got)
			}
			var perr *Error
			if !errors.As(err, &perr) || perr.Status != tc.status {
				t.Fatalf("expected *Error with status %d, got %#v", tc.status, err)
			}
		})
	}
}

func TestPredict_NoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewHTTPClient(WithBaseURL(url), WithLogger(zap.NewNop()))
	_, err := client.Predict(context.Background(), sampleFeatures())
	if got := UserMessage(err); got != MsgNoResponse {
		t.Fatalf("expected no-response message, got %q (%v)", got, err)
	}
}

func TestPredict_ContractGuards(t *testing.T) {
	contract, err := DefaultContract(context.Background())
	if err != nil {
		t.Fatalf("load contract: %v", err)
	}

	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"prediction": "lots"}`)
	}, WithContract(contract))

	bad := sampleFeatures()
	bad.Floors = 0
	_, err = client.Predict(context.Background(), bad)
	if !errors.Is(err, ErrContractViolation) || UserMessage(err) != MsgRequestSetup {
		t.Fatalf("expected request contract violation, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("request violating the contract must not be sent")
	}

	_, err = client.Predict(context.Background(), sampleFeatures())
	if !errors.Is(err, ErrContractViolation) || UserMessage(err) != MsgInvalidResponse {
		t.Fatalf("expected response contract violation, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected exactly one request, got %d", hits.Load())
	}
}

func TestHealth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/health" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{"status": "healthy", "model_loaded": true}`)
	})
	got, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	want := map[string]any{"status": "healthy", "model_loaded": true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("health mismatch (-want +got):\n%s", diff)
	}
}

func TestMetrics_RecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	var fail atomic.Bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"prediction": 1}`)
	}, WithMetrics(metrics))

	if _, err := client.Predict(context.Background(), sampleFeatures()); err != nil {
		t.Fatalf("predict: %v", err)
	}
	fail.Store(true)
	_, _ = client.Predict(context.Background(), sampleFeatures())

	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("predict", outcomeOK)); got != 1 {
		t.Fatalf("expected one ok call, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("predict", outcomeStatus)); got != 1 {
		t.Fatalf("expected one status error, got %v", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		raw  string
		want time.Time
	}{
		{raw: "2025-03-01T10:30:00Z", want: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
		{raw: "2025-03-01T10:30:00", want: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
		{raw: "2025-03-01T10:30:00.5", want: time.Date(2025, 3, 1, 10, 30, 0, 500000000, time.UTC)},
		{raw: "2025-03-01T12:30:00+02:00", want: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
		{raw: "yesterday", want: now()},
		{raw: "", want: now()},
	}
	for _, tc := range tests {
		if got := parseTimestamp(tc.raw, now); !got.Equal(tc.want) {
			t.Fatalf("parseTimestamp(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
