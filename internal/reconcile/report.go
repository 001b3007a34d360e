package reconcile

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reconcile-cli/internal/crm"
	"github.com/sells-group/reconcile-cli/internal/match"
)

// MatchLine is one record's best row.
type MatchLine struct {
	ID    string     `json:"id"`
	Task  string     `json:"task"`
	Match *string    `json:"match"`
	Score float64    `json:"score"`
	Tier  match.Tier `json:"tier"`
}

// Report lists the best row for every record.
type Report struct {
	Total   int         `json:"total"`
	Matches []MatchLine `json:"matches"`
}

// Matched counts lines with a match.
func (r *Report) Matched() int {
	n := 0
	for _, l := range r.Matches {
		if l.Match != nil {
			n++
		}
	}
	return n
}

// MatchReport matches every record in opts.Status against the rows.
func MatchReport(ctx context.Context, src crm.Source, rows *Rows, opts Options) (*Report, error) {
	records, err := src.Records(ctx, opts.Status)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: match report")
	}
	records = opts.limit(records)

	report := &Report{Total: len(records), Matches: make([]MatchLine, 0, len(records))}
	for _, rec := range records {
		res := rows.Match(rec.Name)
		line := MatchLine{ID: rec.ID, Task: rec.Name, Tier: res.Tier}
		if res.Matched() {
			name := res.Candidate.DisplayName
			line.Match = &name
			line.Score = res.Rounded()
		}
		report.Matches = append(report.Matches, line)
	}
	return report, nil
}
