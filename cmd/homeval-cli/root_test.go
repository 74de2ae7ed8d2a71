package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-homeval/pkg/renderers/tui"
)

// scriptedDriver answers prompts from fixed queues.
type scriptedDriver struct {
	inputs   []string
	selects  []int
	confirms []bool
	info     []string
}

func (d *scriptedDriver) Input(context.Context, tui.InputConfig) (string, error) {
	if len(d.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	return v, nil
}

func (d *scriptedDriver) Confirm(context.Context, tui.ConfirmConfig) (bool, error) {
	if len(d.confirms) == 0 {
		return false, errors.New("no confirm scripted")
	}
	v := d.confirms[0]
	d.confirms = d.confirms[1:]
	return v, nil
}

func (d *scriptedDriver) Select(context.Context, tui.SelectConfig) (int, error) {
	if len(d.selects) == 0 {
		return -1, errors.New("no select scripted")
	}
	v := d.selects[0]
	d.selects = d.selects[1:]
	return v, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.info = append(d.info, msg)
	return nil
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"prediction": 450000}`)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "ok", "model_loaded": true}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, apiURL string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`api:
  base_url: %s
  timeout: 2s
history:
  driver: file
  path: %s
  linger: 10ms
log:
  level: error
`, apiURL, filepath.Join(dir, "history"))
	path := filepath.Join(dir, "homeval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func run(t *testing.T, driver tui.PromptDriver, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&cli{driver: driver})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func predictDriver() *scriptedDriver {
	return &scriptedDriver{
		inputs: []string{
			"98001", "1995", "5000", "1800",
			"3", "2", "1", "0", "3", "7",
			"", "", "", "", "", "", "",
		},
		// next, next, waterfront "No", submit, quit
		selects: []int{0, 0, 0, 0, 2},
	}
}

func TestPredictThenManageHistory(t *testing.T) {
	cfg := writeConfig(t, newAPI(t).URL)

	driver := predictDriver()
	_, err := run(t, driver, "--config", cfg, "predict")
	require.NoError(t, err)
	assert.Contains(t, strings.Join(driver.info, "\n"), "Estimated price: USD 450,000")

	out, err := run(t, nil, "--config", cfg, "history", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "98001")
	assert.Contains(t, lines[0], "USD 450,000")
	id := strings.Fields(lines[0])[0]

	out, err = run(t, nil, "--config", cfg, "history", "export", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	decline := &scriptedDriver{confirms: []bool{false}}
	_, err = run(t, decline, "--config", cfg, "history", "delete", id)
	require.NoError(t, err)
	out, err = run(t, nil, "--config", cfg, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	out, err = run(t, nil, "--config", cfg, "history", "delete", "--yes", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+id)

	out, err = run(t, nil, "--config", cfg, "history", "list")
	require.NoError(t, err)
	assert.Equal(t, "No predictions yet.\n", out)
}

func TestPredictCancelled(t *testing.T) {
	cfg := writeConfig(t, newAPI(t).URL)
	driver := &scriptedDriver{
		inputs:  []string{"98001", "1995", "5000", "1800"},
		selects: []int{1},
	}
	out, err := run(t, driver, "--config", cfg, "predict")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
}

func TestPredictFromUnknownRecord(t *testing.T) {
	cfg := writeConfig(t, newAPI(t).URL)
	_, err := run(t, &scriptedDriver{}, "--config", cfg, "predict", "--from", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestHistoryExportToFile(t *testing.T) {
	cfg := writeConfig(t, newAPI(t).URL)
	_, err := run(t, predictDriver(), "--config", cfg, "predict")
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "report.html")
	_, err = run(t, nil, "--config", cfg, "history", "export", "-f", "html", "-o", target, "--title", "Weekly")
	require.NoError(t, err)

	raw, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<title>Weekly</title>")
	assert.Contains(t, string(raw), "USD 450,000")

	_, err = run(t, nil, "--config", cfg, "history", "export", "-f", "pdf")
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	cfg := writeConfig(t, newAPI(t).URL)
	out, err := run(t, nil, "--config", cfg, "health")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "ok"`)
}

func TestHealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := writeConfig(t, url)
	_, err := run(t, nil, "--config", cfg, "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
}

func TestSchemaCommands(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")

	out, err := run(t, nil, "--config", cfg, "schema", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "king-county\n")
	assert.Contains(t, out, "pincode (deprecated)")

	out, err = run(t, nil, "--config", cfg, "--schema", "legacy", "schema", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "name: pincode")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: broken\nsteps: []\n"), 0o600))
	_, err = run(t, nil, "--config", cfg, "schema", "check", bad)
	require.Error(t, err)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, nil, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "schema", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
