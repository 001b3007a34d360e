package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sells-group/reconcile-cli/internal/crm"
	"github.com/sells-group/reconcile-cli/internal/reconcile"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatReport writes one line per record: name, best row and score.
func formatReport(out io.Writer, r *reconcile.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TASK\tMATCH\tSCORE\tTIER")
	for _, l := range r.Matches {
		match := "-"
		if l.Match != nil {
			match = *l.Match
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", l.Task, match, l.Score, l.Tier)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "Matched %d of %d records.\n", r.Matched(), r.Total)
}

// formatSummary writes the closing line of a write command.
func formatSummary(out io.Writer, s *reconcile.Summary) {
	verb := "Applied"
	if s.DryRun {
		verb = "Planned"
	}
	count := s.Applied
	if s.DryRun {
		count = s.Planned
	}
	_, _ = fmt.Fprintf(out, "Done. Processed: %d. Matched: %d. %s updates: %d.", s.Processed, s.Matched, verb, count)
	if s.Failed > 0 {
		_, _ = fmt.Fprintf(out, " Failed: %d.", s.Failed)
	}
	if s.RunID != "" {
		_, _ = fmt.Fprintf(out, " Run: %s.", truncateID(s.RunID))
	}
	_, _ = fmt.Fprintln(out)
}

func formatList(out io.Writer, r *reconcile.ListResult) {
	_, _ = fmt.Fprintf(out, "Found %d records:\n", r.Count)
	for _, it := range r.Items {
		_, _ = fmt.Fprintf(out, "- %s (id: %s) [%s] %s\n", it.Name, it.ID, it.Status, it.URL)
	}
}

func formatFields(out io.Writer, fields []crm.Field) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tTYPE\tOPTIONS")
	for _, f := range fields {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", f.ID, f.Name, f.Type, len(f.Options))
	}
	_ = w.Flush()
}

func formatFieldHits(out io.Writer, term string, hits []reconcile.FieldHit) {
	if len(hits) == 0 {
		_, _ = fmt.Fprintf(out, "No fields or options contain %q.\n", term)
		return
	}
	for _, h := range hits {
		if h.Where == reconcile.WhereOption {
			_, _ = fmt.Fprintf(out, "- %s (%s, %s) option %q\n", h.Name, h.ID, h.Type, h.Option)
			continue
		}
		_, _ = fmt.Fprintf(out, "- %s (%s, %s)\n", h.Name, h.ID, h.Type)
	}
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
