package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment override, e.g. HOMEVAL_API_BASE_URL.
const EnvPrefix = "HOMEVAL"

// Config holds the full application configuration.
type Config struct {
	API      APIConfig      `yaml:"api" mapstructure:"api"`
	Form     FormConfig     `yaml:"form" mapstructure:"form"`
	History  HistoryConfig  `yaml:"history" mapstructure:"history"`
	Currency CurrencyConfig `yaml:"currency" mapstructure:"currency"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// APIConfig configures the prediction service client.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Contract enables request/response checks against the bundled OpenAPI
	// document.
	Contract bool `yaml:"contract" mapstructure:"contract"`
}

// FormConfig selects the form schema: a bundled name or a file path.
type FormConfig struct {
	Schema string `yaml:"schema" mapstructure:"schema"`
}

// HistoryConfig configures where predictions are persisted.
type HistoryConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	Key         string        `yaml:"key" mapstructure:"key"`
	Path        string        `yaml:"path" mapstructure:"path"`
	RedisAddr   string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPrefix string        `yaml:"redis_prefix" mapstructure:"redis_prefix"`
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	Linger      time.Duration `yaml:"linger" mapstructure:"linger"`
}

// CurrencyConfig converts service prices for display and storage.
type CurrencyConfig struct {
	Code string  `yaml:"code" mapstructure:"code"`
	Rate float64 `yaml:"rate" mapstructure:"rate"`
}

// ReportConfig configures history exports.
type ReportConfig struct {
	TemplateDir string `yaml:"template_dir" mapstructure:"template_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Load reads configuration from file and environment. An explicit path must
// exist; otherwise homeval.yaml is looked up in the working directory and
// $HOME/.homeval and is optional.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("homeval")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.homeval")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.contract", true)
	v.SetDefault("form.schema", "king-county")
	v.SetDefault("history.driver", "file")
	v.SetDefault("history.key", "predictions")
	v.SetDefault("history.path", defaultHistoryPath())
	v.SetDefault("history.redis_addr", "localhost:6379")
	v.SetDefault("history.redis_prefix", "homeval:")
	v.SetDefault("history.dial_timeout", 2*time.Second)
	v.SetDefault("history.linger", 800*time.Millisecond)
	v.SetDefault("currency.code", "USD")
	v.SetDefault("currency.rate", 1.0)
	v.SetDefault("report.template_dir", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("metrics.addr", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.Currency.Code = strings.ToUpper(strings.TrimSpace(cfg.Currency.Code))

	return &cfg, nil
}

// InitLogger builds the logger described by cfg and installs it globally.
func InitLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	// the wizard owns stdout
	zapCfg.OutputPaths = []string{"stderr"}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return logger, nil
}
