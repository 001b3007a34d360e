package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/reconcile-cli/internal/match"
	"github.com/sells-group/reconcile-cli/internal/reconcile"
	"github.com/sells-group/reconcile-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	CRM        CRMConfig        `yaml:"crm" mapstructure:"crm"`
	ClickUp    ClickUpConfig    `yaml:"clickup" mapstructure:"clickup"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Source     SourceConfig     `yaml:"source" mapstructure:"source"`
	Match      match.Options    `yaml:"match" mapstructure:"match"`
	Normalize  NormalizeConfig  `yaml:"normalize" mapstructure:"normalize"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Store      store.Config     `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// CRMConfig selects the CRM backend and the records to process.
type CRMConfig struct {
	// Provider is clickup, notion or salesforce.
	Provider    string `yaml:"provider" mapstructure:"provider"`
	Status      string `yaml:"status" mapstructure:"status"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	// PauseMs is the delay after each successful write.
	PauseMs int `yaml:"pause_ms" mapstructure:"pause_ms"`
}

// ClickUpConfig holds ClickUp API credentials and the CRM list.
type ClickUpConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	ListID    string  `yaml:"list_id" mapstructure:"list_id"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// NotionConfig holds Notion API credentials and the CRM database.
type NotionConfig struct {
	Token          string `yaml:"token" mapstructure:"token"`
	DatabaseID     string `yaml:"database_id" mapstructure:"database_id"`
	StatusProperty string `yaml:"status_property" mapstructure:"status_property"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID    string `yaml:"client_id" mapstructure:"client_id"`
	Username    string `yaml:"username" mapstructure:"username"`
	KeyPath     string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL    string `yaml:"login_url" mapstructure:"login_url"`
	StatusField string `yaml:"status_field" mapstructure:"status_field"`
}

// SourceConfig locates the tabular export.
type SourceConfig struct {
	// Path is a local path or an http(s):// or ftp:// URL.
	Path       string                    `yaml:"path" mapstructure:"path"`
	NameColumn string                    `yaml:"name_column" mapstructure:"name_column"`
	Sheet      string                    `yaml:"sheet" mapstructure:"sheet"`
	Mapping    []reconcile.ColumnMapping `yaml:"mapping" mapstructure:"mapping"`
}

// NormalizeConfig points at an optional vocabulary file.
type NormalizeConfig struct {
	Vocabulary string `yaml:"vocabulary" mapstructure:"vocabulary"`
}

// RetryConfig configures retries of CRM and download calls.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// MonitoringConfig configures run-history health checks and webhook alerts.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	WriteFailureRate     float64 `yaml:"write_failure_rate" mapstructure:"write_failure_rate"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv maps the env names used by the original scripts to config keys.
var legacyEnv = map[string]string{
	"clickup.token":   "CLICKUP_API_KEY",
	"clickup.list_id": "CRM_LIST_ID",
}

// configFile is the optional YAML config in the working directory.
const configFile = "config.yaml"

// Load reads configuration from config.env, config.yaml and the environment.
// Environment wins over the file; config.env never overrides variables that
// are already set.
func Load() (*Config, error) {
	if err := godotenv.Load("config.env"); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: read config.env")
	}

	v := viper.New()

	// Config file. Named explicitly so viper never picks up config.env.
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	// Environment
	v.SetEnvPrefix("RECONCILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "RECONCILE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", env)
		}
	}

	// Defaults
	mo := match.DefaultOptions()
	v.SetDefault("crm.provider", "clickup")
	v.SetDefault("crm.status", "Engaged")
	v.SetDefault("crm.concurrency", 4)
	v.SetDefault("crm.pause_ms", 150)
	v.SetDefault("clickup.base_url", "https://api.clickup.com/api/v2")
	v.SetDefault("clickup.rate_limit", 1.5)
	v.SetDefault("notion.status_property", "Status")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.status_field", "Type")
	v.SetDefault("source.path", "data/brewery_data.csv")
	v.SetDefault("source.name_column", reconcile.DefaultNameColumn)
	v.SetDefault("match.high_coverage", mo.HighCoverage)
	v.SetDefault("match.best_effort", mo.BestEffort)
	v.SetDefault("match.min_contains_len", mo.MinContainsLen)
	v.SetDefault("match.min_distinctive_len", mo.MinDistinctiveLen)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "reconcile.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.write_failure_rate", 0.10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode needs: "crm" for commands that
// talk to the CRM, "serve" for the HTTP API, "local" for offline commands.
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "crm":
		errs = append(errs, c.validateCRM()...)
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "local":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.CRM.Concurrency < 1 || c.CRM.Concurrency > 32 {
		errs = append(errs, "crm.concurrency must be between 1 and 32")
	}
	if c.Match.BestEffort < 0 || c.Match.BestEffort > 1 {
		errs = append(errs, "match.best_effort must be between 0 and 1")
	}
	if c.Match.HighCoverage < 0 || c.Match.HighCoverage > 1 {
		errs = append(errs, "match.high_coverage must be between 0 and 1")
	}
	if c.Match.BestEffort > c.Match.HighCoverage {
		errs = append(errs, "match.best_effort must not exceed match.high_coverage")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateCRM() []string {
	var errs []string
	switch c.CRM.Provider {
	case "clickup":
		if c.ClickUp.Token == "" {
			errs = append(errs, "clickup.token is required (CLICKUP_API_KEY)")
		}
		if c.ClickUp.ListID == "" {
			errs = append(errs, "clickup.list_id is required (CRM_LIST_ID)")
		}
	case "notion":
		if c.Notion.Token == "" {
			errs = append(errs, "notion.token is required")
		}
		if c.Notion.DatabaseID == "" {
			errs = append(errs, "notion.database_id is required")
		}
	case "salesforce":
		if c.Salesforce.ClientID == "" {
			errs = append(errs, "salesforce.client_id is required")
		}
		if c.Salesforce.Username == "" {
			errs = append(errs, "salesforce.username is required")
		}
		if c.Salesforce.KeyPath == "" {
			errs = append(errs, "salesforce.key_path is required")
		}
	default:
		errs = append(errs, "crm.provider must be clickup, notion or salesforce")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
