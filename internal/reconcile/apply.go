package reconcile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reconcile-cli/internal/crm"
	"github.com/sells-group/reconcile-cli/internal/resilience"
	"github.com/sells-group/reconcile-cli/internal/store"
)

// Applier sends planned updates one at a time. A failed write is logged,
// recorded and counted; the run continues.
type Applier struct {
	Source crm.Source
	// Store records every change when set.
	Store store.Store
	RunID string
	Retry resilience.RetryConfig
	// DryRun logs updates without sending them.
	DryRun bool
	// Pause is the delay after each successful write.
	Pause time.Duration
}

// Apply sends the updates of every plan and returns the applied and failed
// counts. It stops early only when ctx is done.
func (a *Applier) Apply(ctx context.Context, plans []Plan) (applied, failed int, err error) {
	verb := "Updating"
	if a.DryRun {
		verb = "Would update"
	}
	for _, p := range plans {
		for _, u := range p.Updates {
			if err := ctx.Err(); err != nil {
				return applied, failed, eris.Wrap(err, "reconcile: apply")
			}
			zap.L().Info(verb,
				zap.String("record", u.RecordName),
				zap.String("record_id", u.RecordID),
				zap.String("field", u.Label()),
				zap.Any("value", u.Value),
			)
			if a.DryRun {
				a.record(ctx, u, false, nil)
				continue
			}

			werr := resilience.Do(ctx, a.retry(), func(ctx context.Context) error {
				return a.send(ctx, u)
			})
			a.record(ctx, u, werr == nil, werr)
			if werr != nil {
				failed++
				zap.L().Error("reconcile: update failed",
					zap.String("record_id", u.RecordID),
					zap.String("field", u.Label()),
					zap.Error(werr),
				)
				continue
			}
			applied++
			if a.Pause > 0 {
				select {
				case <-ctx.Done():
					return applied, failed, eris.Wrap(ctx.Err(), "reconcile: apply")
				case <-time.After(a.Pause):
				}
			}
		}
	}
	return applied, failed, nil
}

func (a *Applier) retry() resilience.RetryConfig {
	cfg := a.Retry
	if cfg.MaxAttempts == 0 {
		cfg = resilience.DefaultRetryConfig()
	}
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("crm", "set field")
	}
	return cfg
}

func (a *Applier) send(ctx context.Context, u crm.Update) error {
	if u.Kind != crm.KindType {
		return a.Source.SetField(ctx, u)
	}
	ts, ok := a.Source.(crm.TypeSetter)
	if !ok {
		return eris.Errorf("reconcile: %T cannot set record types", a.Source)
	}
	name, _ := u.Value.(string)
	return ts.SetType(ctx, u.RecordID, name)
}

// record stores the change; store failures are logged and never fail the run.
func (a *Applier) record(ctx context.Context, u crm.Update, applied bool, werr error) {
	if a.Store == nil || a.RunID == "" {
		return
	}
	value, err := json.Marshal(u.Value)
	if err != nil {
		value = []byte("null")
	}
	c := store.Change{
		RunID:      a.RunID,
		RecordID:   u.RecordID,
		RecordName: u.RecordName,
		Field:      u.Label(),
		Value:      string(value),
		Applied:    applied,
	}
	if werr != nil {
		c.Error = werr.Error()
	}
	if err := a.Store.RecordChange(ctx, a.RunID, c); err != nil {
		zap.L().Warn("reconcile: record change failed", zap.String("run_id", a.RunID), zap.Error(err))
	}
}
