// Package store persists reconcile run history: one row per command run and
// one row per planned field change.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Counts are the per-run totals.
type Counts struct {
	Processed int `json:"processed"`
	Matched   int `json:"matched"`
	Planned   int `json:"planned"`
	Applied   int `json:"applied"`
	Failed    int `json:"failed"`
}

// Run is one invocation of a reconcile command.
type Run struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Source    string    `json:"source,omitempty"`
	DryRun    bool      `json:"dry_run"`
	Status    RunStatus `json:"status"`
	Counts    Counts    `json:"counts"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunOptions describe a run at creation time.
type RunOptions struct {
	Command string
	Source  string
	DryRun  bool
}

// Change is one planned write and its outcome.
type Change struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	RecordID   string    `json:"record_id"`
	RecordName string    `json:"record_name"`
	Field      string    `json:"field"`
	Value      string    `json:"value"` // JSON-encoded
	Applied    bool      `json:"applied"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Command string    `json:"command,omitempty"`
	Status  RunStatus `json:"status,omitempty"`
	Limit   int       `json:"limit,omitempty"`
}

// Store defines the run-history persistence interface.
type Store interface {
	CreateRun(ctx context.Context, opts RunOptions) (*Run, error)
	RecordChange(ctx context.Context, runID string, c Change) error
	CompleteRun(ctx context.Context, runID string, counts Counts, runErr error) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	ListChanges(ctx context.Context, runID string) ([]Change, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver   string     `mapstructure:"driver"` // sqlite, postgres, none
	Path     string     `mapstructure:"path"`
	URL      string     `mapstructure:"url"`
	MaxConns int32      `mapstructure:"max_conns"`
	MinConns int32      `mapstructure:"min_conns"`
}

// Open returns a migrated Store for cfg, or nil when the driver is "none".
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "reconcile.db"
		}
		s, err = NewSQLite(path)
	case "postgres":
		if cfg.URL == "" {
			return nil, eris.New("store: postgres requires store.url")
		}
		s, err = NewPostgres(ctx, cfg.URL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	case "none":
		return nil, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func statusFor(err error) RunStatus {
	if err != nil {
		return RunStatusFailed
	}
	return RunStatusComplete
}
