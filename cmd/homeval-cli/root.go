package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	homeval "github.com/goliatone/go-homeval"
	"github.com/goliatone/go-homeval/internal/config"
	"github.com/goliatone/go-homeval/pkg/blobstore"
	"github.com/goliatone/go-homeval/pkg/renderers/tui"
)

// cli carries state shared by the commands of one invocation.
type cli struct {
	cfgFile string
	schema  string
	cfg     *config.Config
	logger  *zap.Logger
	metrics *http.Server

	// driver overrides the survey prompts; tests script it.
	driver tui.PromptDriver
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:          "homeval-cli",
		Short:        "Estimate property prices from a guided form",
		Long:         "Collects property attributes step by step, asks the prediction service for a price estimate and keeps a local history of results.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if c.schema != "" {
				cfg.Form.Schema = c.schema
			}
			c.cfg = cfg

			logger, err := config.InitLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.stopMetrics()
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default homeval.yaml in . or $HOME/.homeval)")
	root.PersistentFlags().StringVar(&c.schema, "schema", "", "form schema: canonical, legacy or a schema file path")

	root.AddCommand(
		newPredictCmd(c),
		newHistoryCmd(c),
		newHealthCmd(c),
		newSchemaCmd(c),
	)
	return root
}

// openApp wires the configured components. Metrics are served while the
// command runs when metrics.addr is set.
func (c *cli) openApp(ctx context.Context) (*homeval.App, error) {
	cfg := c.cfg
	opts := []homeval.Option{
		homeval.WithSchema(cfg.Form.Schema),
		homeval.WithAPI(cfg.API.BaseURL, cfg.API.Timeout),
		homeval.WithContract(cfg.API.Contract),
		homeval.WithBlobConfig(blobstore.Config{
			Driver:      cfg.History.Driver,
			Path:        cfg.History.Path,
			RedisAddr:   cfg.History.RedisAddr,
			RedisPrefix: cfg.History.RedisPrefix,
			DialTimeout: cfg.History.DialTimeout,
		}),
		homeval.WithHistory(cfg.History.Key, cfg.History.Linger),
		homeval.WithCurrency(cfg.Currency.Code, cfg.Currency.Rate),
		homeval.WithLogger(c.logger),
	}
	if cfg.Metrics.Addr != "" {
		reg := c.startMetrics(cfg.Metrics.Addr)
		opts = append(opts, homeval.WithRegisterer(reg))
	}
	return homeval.New(ctx, opts...)
}

func (c *cli) prompts(out io.Writer) tui.PromptDriver {
	if c.driver != nil {
		return c.driver
	}
	return tui.NewSurveyDriver(out)
}

func (c *cli) session(out io.Writer) *tui.Session {
	return tui.NewSession(
		tui.WithPromptDriver(c.prompts(out)),
		tui.WithLogger(c.logger),
	)
}

func (c *cli) startMetrics(addr string) prometheus.Registerer {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	c.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func(srv *http.Server, logger *zap.Logger) {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics endpoint stopped", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}(c.metrics, c.logger)
	c.logger.Info("serving metrics", zap.String("addr", addr))
	return reg
}

func (c *cli) stopMetrics() {
	if c.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = c.metrics.Shutdown(ctx)
	c.metrics = nil
}
