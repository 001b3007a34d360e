package reconcile

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/reconcile-cli/internal/match"
	"github.com/sells-group/reconcile-cli/internal/normalize"
	"github.com/sells-group/reconcile-cli/internal/tabular"
)

// DefaultNameColumn is the export column holding the company name.
const DefaultNameColumn = "Company Name"

// Rows is a loaded export prepared for matching. Candidates are built once;
// each candidate's payload is its row index.
type Rows struct {
	Table      *tabular.Table
	NameColumn string

	matcher    *match.Matcher
	candidates []match.Candidate
}

// NewRows normalizes the name column of t. It fails when the column is
// missing.
func NewRows(t *tabular.Table, nameColumn string, n *normalize.Normalizer, m *match.Matcher) (*Rows, error) {
	if nameColumn == "" {
		nameColumn = DefaultNameColumn
	}
	if err := t.Require(nameColumn); err != nil {
		return nil, eris.Wrap(err, "reconcile: rows")
	}
	cands := make([]match.Candidate, len(t.Rows))
	for i, row := range t.Rows {
		name, _ := t.At(row, nameColumn)
		cands[i] = match.NewCandidate(n, name, i)
	}
	return &Rows{Table: t, NameColumn: nameColumn, matcher: m, candidates: cands}, nil
}

// Match returns the best row for a record name.
func (r *Rows) Match(name string) match.Result {
	return r.matcher.Match(name, r.candidates)
}

// Row returns the raw row behind a matched result.
func (r *Rows) Row(res match.Result) ([]string, bool) {
	if !res.Matched() {
		return nil, false
	}
	i, ok := res.Candidate.Payload.(int)
	if !ok || i < 0 || i >= len(r.Table.Rows) {
		return nil, false
	}
	return r.Table.Rows[i], true
}

// Len returns the number of candidate rows.
func (r *Rows) Len() int {
	return len(r.candidates)
}
