package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reconcile-cli/internal/crm"
	"github.com/sells-group/reconcile-cli/internal/extract"
	"github.com/sells-group/reconcile-cli/internal/resilience"
	"github.com/sells-group/reconcile-cli/internal/store"
)

// Command names recorded in the run store.
const (
	CommandSyncCSV      = "sync-csv"
	CommandSyncComments = "sync-comments"
	CommandTaskTypes    = "task-types"
)

// Runner drives the write commands against one CRM source.
type Runner struct {
	Source crm.Source
	// SourceName labels runs, e.g. "clickup".
	SourceName string
	Store      store.Store
	Retry      resilience.RetryConfig
	Pause      time.Duration
	Options    Options
}

// SyncCSV back-fills record fields from matched export rows.
func (r *Runner) SyncCSV(ctx context.Context, rows *Rows, mapping []ColumnMapping) (*Summary, error) {
	return r.run(ctx, CommandSyncCSV, func(ctx context.Context, records []crm.Record, fields []crm.Field, s *Summary) ([]Plan, error) {
		idx := crm.NewFieldIndex(fields)
		planner := NewCSVPlanner(rows, mapping)
		var plans []Plan
		for _, rec := range records {
			plan, ok := planner.Plan(rec, idx, r.Options.Overwrite)
			if !ok {
				zap.L().Info("No CSV match", zap.String("record", rec.Name), zap.String("record_id", rec.ID))
				continue
			}
			s.Matched++
			if len(plan.Updates) == 0 {
				zap.L().Info("No updates", zap.String("record", rec.Name), zap.String("match", plan.Match))
				continue
			}
			plans = append(plans, plan)
		}
		return plans, nil
	})
}

// SyncComments back-fills contact fields from text found in record comments.
func (r *Runner) SyncComments(ctx context.Context, e *extract.Extractor) (*Summary, error) {
	return r.run(ctx, CommandSyncComments, func(ctx context.Context, records []crm.Record, fields []crm.Field, s *Summary) ([]Plan, error) {
		targets, missing := PreferredContactFields(crm.NewFieldIndex(fields))
		if len(missing) > 0 {
			names := make([]string, len(missing))
			for i, f := range missing {
				names[i] = string(f)
			}
			zap.L().Warn("reconcile: missing expected contact fields", zap.String("fields", strings.Join(names, ", ")))
		}

		texts, err := FetchComments(ctx, r.Source, records, r.Options.Concurrency)
		if err != nil {
			return nil, err
		}
		planner := NewCommentPlanner(e, targets)
		var plans []Plan
		for _, rec := range records {
			plan, contact := planner.Plan(rec, texts[rec.ID], r.Options.Overwrite)
			if !contact.Empty() {
				s.Matched++
			}
			if len(plan.Updates) == 0 {
				zap.L().Info("No updates", zap.String("record", rec.Name), zap.String("record_id", rec.ID))
				continue
			}
			plans = append(plans, plan)
		}
		return plans, nil
	})
}

// TaskTypes reclassifies records whose type reads from as to.
func (r *Runner) TaskTypes(ctx context.Context, from, to string) (*Summary, error) {
	return r.run(ctx, CommandTaskTypes, func(ctx context.Context, records []crm.Record, fields []crm.Field, s *Summary) ([]Plan, error) {
		planner := NewTypePlanner(fields, from, to)
		if _, ok := planner.FindTypeField(); !ok {
			zap.L().Warn("reconcile: type field not identified by name; checking every field per record")
		}
		var plans []Plan
		for _, rec := range records {
			plan := planner.Plan(rec)
			if len(plan.Updates) == 0 {
				zap.L().Info("No matching type field", zap.String("record", rec.Name), zap.String("record_id", rec.ID))
				continue
			}
			s.Matched++
			plans = append(plans, plan)
		}
		return plans, nil
	})
}

type planFunc func(ctx context.Context, records []crm.Record, fields []crm.Field, s *Summary) ([]Plan, error)

// run loads records and fields, plans, applies and records the run.
func (r *Runner) run(ctx context.Context, command string, plan planFunc) (summary *Summary, err error) {
	s := &Summary{DryRun: r.Options.DryRun}
	if r.Store != nil {
		run, cerr := r.Store.CreateRun(ctx, store.RunOptions{Command: command, Source: r.SourceName, DryRun: r.Options.DryRun})
		if cerr != nil {
			return nil, eris.Wrapf(cerr, "reconcile: %s", command)
		}
		s.RunID = run.ID
		defer func() {
			if cerr := r.Store.CompleteRun(context.WithoutCancel(ctx), s.RunID, s.Counts(), err); cerr != nil {
				zap.L().Warn("reconcile: complete run failed", zap.String("run_id", s.RunID), zap.Error(cerr))
			}
		}()
	}

	fields, err := r.Source.Fields(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: %s fields", command)
	}
	records, err := r.Source.Records(ctx, r.Options.Status)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: %s records", command)
	}
	records = r.Options.limit(records)
	s.Processed = len(records)

	plans, err := plan(ctx, records, fields, s)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: %s plan", command)
	}
	s.Planned = countUpdates(plans)

	a := &Applier{
		Source: r.Source,
		Store:  r.Store,
		RunID:  s.RunID,
		Retry:  r.Retry,
		DryRun: r.Options.DryRun,
		Pause:  r.Pause,
	}
	s.Applied, s.Failed, err = a.Apply(ctx, plans)
	if err != nil {
		return s, err
	}

	zap.L().Info("Done",
		zap.String("command", command),
		zap.Int("processed", s.Processed),
		zap.Int("matched", s.Matched),
		zap.Int("planned", s.Planned),
		zap.Int("applied", s.Applied),
		zap.Int("failed", s.Failed),
		zap.Bool("dry_run", s.DryRun),
	)
	return s, nil
}
