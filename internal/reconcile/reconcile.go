// Package reconcile plans and applies CRM field updates from a tabular
// export and from record comments.
package reconcile

import (
	"github.com/sells-group/reconcile-cli/internal/crm"
	"github.com/sells-group/reconcile-cli/internal/match"
	"github.com/sells-group/reconcile-cli/internal/store"
)

// Options control a reconcile run.
type Options struct {
	// DryRun logs planned writes without sending them.
	DryRun bool
	// Overwrite plans writes for fields that already hold a value.
	Overwrite bool
	// Limit caps the number of records processed; 0 means no cap.
	Limit int
	// Status selects the CRM records to process; empty means all.
	Status string
	// Concurrency bounds parallel comment fetches. Writes stay sequential.
	Concurrency int
}

func (o Options) limit(records []crm.Record) []crm.Record {
	if o.Limit > 0 && len(records) > o.Limit {
		return records[:o.Limit]
	}
	return records
}

// Plan is the set of writes for one record.
type Plan struct {
	Record  crm.Record   `json:"record"`
	Match   string       `json:"match,omitempty"`
	Score   float64      `json:"score,omitempty"`
	Tier    match.Tier   `json:"tier"`
	Updates []crm.Update `json:"updates"`
}

// Summary totals one run.
type Summary struct {
	RunID     string `json:"run_id,omitempty"`
	Processed int    `json:"processed"`
	Matched   int    `json:"matched"`
	Planned   int    `json:"planned"`
	Applied   int    `json:"applied"`
	Failed    int    `json:"failed"`
	DryRun    bool   `json:"dry_run"`
}

// Counts converts the summary to the run-store form.
func (s Summary) Counts() store.Counts {
	return store.Counts{
		Processed: s.Processed,
		Matched:   s.Matched,
		Planned:   s.Planned,
		Applied:   s.Applied,
		Failed:    s.Failed,
	}
}

func countUpdates(plans []Plan) int {
	n := 0
	for _, p := range plans {
		n += len(p.Updates)
	}
	return n
}

// planValue adds an update when value is non-empty and the record's current
// value is empty, or always when overwrite is set.
func planValue(p *Plan, f crm.Field, value any, overwrite bool) {
	if crm.IsEmpty(value) {
		return
	}
	if !overwrite && !crm.IsEmpty(p.Record.Value(f.ID)) {
		return
	}
	p.Updates = append(p.Updates, crm.Update{
		Kind:       crm.KindField,
		RecordID:   p.Record.ID,
		RecordName: p.Record.Name,
		FieldID:    f.ID,
		FieldName:  f.Name,
		Value:      value,
		Match:      p.Match,
	})
}
