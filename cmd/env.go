package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reconcile-cli/internal/crm"
	crmclickup "github.com/sells-group/reconcile-cli/internal/crm/clickup"
	"github.com/sells-group/reconcile-cli/internal/crm/notiondb"
	"github.com/sells-group/reconcile-cli/internal/crm/sfaccount"
	"github.com/sells-group/reconcile-cli/internal/fetcher"
	"github.com/sells-group/reconcile-cli/internal/match"
	"github.com/sells-group/reconcile-cli/internal/normalize"
	"github.com/sells-group/reconcile-cli/internal/reconcile"
	"github.com/sells-group/reconcile-cli/internal/resilience"
	"github.com/sells-group/reconcile-cli/internal/store"
	"github.com/sells-group/reconcile-cli/internal/tabular"
	"github.com/sells-group/reconcile-cli/pkg/clickup"
	"github.com/sells-group/reconcile-cli/pkg/notion"
	"github.com/sells-group/reconcile-cli/pkg/salesforce"
)

// retryConfig builds the retry policy from config.
func retryConfig() resilience.RetryConfig {
	return resilience.FromRetryConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs)
}

// reconcileOptions merges config with the persistent flags.
func reconcileOptions() reconcile.Options {
	return reconcile.Options{
		DryRun:      flagDryRun,
		Overwrite:   flagOverwrite,
		Limit:       flagLimit,
		Status:      cfg.CRM.Status,
		Concurrency: cfg.CRM.Concurrency,
	}
}

// initNormalizer builds the normalizer from the configured vocabulary file,
// or the built-in vocabulary when none is set.
func initNormalizer() (*normalize.Normalizer, error) {
	if cfg.Normalize.Vocabulary == "" {
		return normalize.Default(), nil
	}
	v, err := normalize.LoadVocabulary(cfg.Normalize.Vocabulary)
	if err != nil {
		return nil, err
	}
	return normalize.New(v), nil
}

// initSource builds the configured CRM backend.
func initSource() (crm.Source, error) {
	switch cfg.CRM.Provider {
	case "clickup":
		client := clickup.NewClient(cfg.ClickUp.Token,
			clickup.WithBaseURL(cfg.ClickUp.BaseURL),
			clickup.WithRateLimit(cfg.ClickUp.RateLimit),
			clickup.WithRetry(retryConfig()),
		)
		return crmclickup.New(client, cfg.ClickUp.ListID), nil
	case "notion":
		return notiondb.New(notion.NewClient(cfg.Notion.Token), cfg.Notion.DatabaseID, cfg.Notion.StatusProperty), nil
	case "salesforce":
		pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
		if err != nil {
			return nil, eris.Wrap(err, "read salesforce JWT private key")
		}
		client, err := salesforce.Connect(cfg.Salesforce.LoginURL, cfg.Salesforce.Username, cfg.Salesforce.ClientID, string(pemData))
		if err != nil {
			return nil, err
		}
		return sfaccount.New(client, cfg.Salesforce.StatusField), nil
	default:
		return nil, eris.Errorf("unsupported crm provider: %s", cfg.CRM.Provider)
	}
}

// initStore opens the run store; it returns nil when the driver is "none".
func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

// loadRows fetches and indexes the export.
func loadRows(ctx context.Context, n *normalize.Normalizer) (*reconcile.Rows, error) {
	opener := fetcher.NewOpener(
		fetcher.HTTPOptions{Retry: retryConfig()},
		fetcher.FTPOptions{Retry: retryConfig()},
	)
	table, err := tabular.Load(ctx, opener, cfg.Source.Path, tabular.XLSXOptions{SheetName: cfg.Source.Sheet})
	if err != nil {
		return nil, err
	}
	return reconcile.NewRows(table, cfg.Source.NameColumn, n, match.New(n, cfg.Match))
}

// newRunner wires a Runner for the write commands.
func newRunner(src crm.Source, st store.Store) *reconcile.Runner {
	return &reconcile.Runner{
		Source:     src,
		SourceName: cfg.CRM.Provider,
		Store:      st,
		Retry:      retryConfig(),
		Pause:      time.Duration(cfg.CRM.PauseMs) * time.Millisecond,
		Options:    reconcileOptions(),
	}
}
