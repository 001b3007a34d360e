package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/reconcile-cli/internal/reconcile"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "clickup", cfg.CRM.Provider)
	assert.Equal(t, "Engaged", cfg.CRM.Status)
	assert.Equal(t, 4, cfg.CRM.Concurrency)
	assert.Equal(t, 150, cfg.CRM.PauseMs)
	assert.InDelta(t, 1.5, cfg.ClickUp.RateLimit, 0.001)
	assert.Equal(t, "https://api.clickup.com/api/v2", cfg.ClickUp.BaseURL)
	assert.Equal(t, "data/brewery_data.csv", cfg.Source.Path)
	assert.Equal(t, reconcile.DefaultNameColumn, cfg.Source.NameColumn)
	assert.InDelta(t, 0.9, cfg.Match.HighCoverage, 0.001)
	assert.InDelta(t, 0.75, cfg.Match.BestEffort, 0.001)
	assert.Equal(t, 8, cfg.Match.MinContainsLen)
	assert.Equal(t, 4, cfg.Match.MinDistinctiveLen)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "reconcile.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Monitoring.Enabled)
	assert.Equal(t, 24, cfg.Monitoring.LookbackWindowHours)
	assert.InDelta(t, 0.25, cfg.Monitoring.FailureRateThreshold, 1e-9)
	assert.Equal(t, "Type", cfg.Salesforce.StatusField)
	assert.Equal(t, "https://login.salesforce.com", cfg.Salesforce.LoginURL)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
crm:
  provider: notion
  status: Active
notion:
  database_id: db-1
store:
  driver: none
log:
  level: debug
  format: console
source:
  path: ftp://ftp.example.com/exports/breweries.xlsx
  mapping:
    - column: City
      field: town
    - column: Phone
      field: main phone
      convert: us_phone
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "notion", cfg.CRM.Provider)
	assert.Equal(t, "Active", cfg.CRM.Status)
	assert.Equal(t, "db-1", cfg.Notion.DatabaseID)
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "ftp://ftp.example.com/exports/breweries.xlsx", cfg.Source.Path)
	require.Len(t, cfg.Source.Mapping, 2)
	assert.Equal(t, reconcile.ColumnMapping{Column: "Phone", Field: "main phone", Convert: reconcile.ConvertUSPhone}, cfg.Source.Mapping[1])
	// Defaults still apply for unset values
	assert.Equal(t, 4, cfg.CRM.Concurrency)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o644))

	t.Setenv("RECONCILE_LOG_LEVEL", "warn")
	t.Setenv("RECONCILE_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadLegacyEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CLICKUP_API_KEY", "pk_legacy")
	t.Setenv("CRM_LIST_ID", "901")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pk_legacy", cfg.ClickUp.Token)
	assert.Equal(t, "901", cfg.ClickUp.ListID)

	t.Setenv("RECONCILE_CLICKUP_TOKEN", "pk_new")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "pk_new", cfg.ClickUp.Token)
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.env"), []byte("CRM_LIST_ID=from-file\n"), 0o644))
	t.Setenv("CRM_LIST_ID", "")
	require.NoError(t, os.Unsetenv("CRM_LIST_ID"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ClickUp.ListID)
}

func TestLoadConfigEnvBesideYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.env"), []byte("CLICKUP_API_KEY=pk_from_env_file\n"), 0o644))
	t.Setenv("CLICKUP_API_KEY", "")
	require.NoError(t, os.Unsetenv("CLICKUP_API_KEY"))

	// Only config.env present: it must not be parsed as the YAML config.
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pk_from_env_file", cfg.ClickUp.Token)
	assert.Equal(t, "clickup", cfg.CRM.Provider)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("crm:\n  status: Active\n"), 0o644))
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "Active", cfg.CRM.Status)
	assert.Equal(t, "pk_from_env_file", cfg.ClickUp.Token)
}

func TestLoadBadYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("crm: [unterminated"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.CRM.Provider = "clickup"
	cfg.CRM.Concurrency = 4
	cfg.Match.HighCoverage = 0.9
	cfg.Match.BestEffort = 0.75
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateCRM_ClickUp(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("crm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clickup.token is required")
	assert.Contains(t, err.Error(), "clickup.list_id is required")

	cfg.ClickUp.Token = "pk_1"
	cfg.ClickUp.ListID = "901"
	assert.NoError(t, cfg.Validate("crm"))
}

func TestValidateCRM_OtherProviders(t *testing.T) {
	cfg := validDefaults()
	cfg.CRM.Provider = "notion"
	err := cfg.Validate("crm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion.database_id is required")

	cfg.CRM.Provider = "salesforce"
	err = cfg.Validate("crm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "salesforce.key_path is required")

	cfg.CRM.Provider = "hubspot"
	err = cfg.Validate("crm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crm.provider must be")
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.CRM.Concurrency = 0
	err := cfg.Validate("local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crm.concurrency must be between 1 and 32")

	cfg.CRM.Concurrency = 4
	cfg.Match.BestEffort = 0.95
	err = cfg.Validate("local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not exceed")

	cfg.Match.BestEffort = 0.75
	cfg.Match.HighCoverage = 1.5
	err = cfg.Validate("local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match.high_coverage")
}
