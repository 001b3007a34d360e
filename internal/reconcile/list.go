package reconcile

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reconcile-cli/internal/crm"
)

// ListItem is one selected record.
type ListItem struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	URL       string   `json:"url"`
	MatchedBy []string `json:"matchedBy"`
}

// ListResult is the list command's JSON shape.
type ListResult struct {
	Count int        `json:"count"`
	Items []ListItem `json:"items"`
}

// ListOptions select records beyond their status. Field and Value filter on
// one field's value text; Heuristic applies the keyword checks. Field wins
// over Heuristic.
type ListOptions struct {
	Status    string
	Field     string
	Value     string
	Heuristic bool
	// Keyword drives the heuristic checks; default "brew".
	Keyword string
}

var (
	heuristicFieldHints = []string{"type", "industry", "category", "account", "company", "segment", "record"}
	heuristicNameTerms  = []string{"brewing", "brewery", "breweries", "brew co"}
)

// List returns the records selected by opts.
func List(ctx context.Context, src crm.Source, opts ListOptions) (*ListResult, error) {
	fields, err := src.Fields(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: list fields")
	}
	records, err := src.Records(ctx, opts.Status)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: list records")
	}
	idx := crm.NewFieldIndex(fields)
	keyword := strings.ToLower(opts.Keyword)
	if keyword == "" {
		keyword = "brew"
	}

	res := &ListResult{Items: []ListItem{}}
	for _, rec := range records {
		matchedBy, ok := selectRecord(rec, fields, idx, opts, keyword)
		if !ok {
			continue
		}
		res.Items = append(res.Items, ListItem{
			ID:        rec.ID,
			Name:      rec.Name,
			Status:    rec.Status,
			URL:       rec.URL,
			MatchedBy: matchedBy,
		})
	}
	res.Count = len(res.Items)
	return res, nil
}

func selectRecord(rec crm.Record, fields []crm.Field, idx crm.FieldIndex, opts ListOptions, keyword string) ([]string, bool) {
	switch {
	case opts.Field != "" && opts.Value != "":
		f, ok := idx.Get(opts.Field)
		if !ok {
			return nil, false
		}
		text := strings.ToLower(crm.ValueText(f, rec.Value(f.ID)))
		if strings.Contains(text, strings.ToLower(opts.Value)) {
			return []string{"field:" + f.Name}, true
		}
		return nil, false
	case opts.Heuristic:
		if byFields(rec, fields, keyword) {
			return []string{"fields"}, true
		}
		if byTags(rec, keyword) {
			return []string{"tags"}, true
		}
		if byName(rec) {
			return []string{"name"}, true
		}
		return nil, false
	default:
		return []string{"status:" + opts.Status}, true
	}
}

func byFields(rec crm.Record, fields []crm.Field, keyword string) bool {
	for _, f := range fields {
		if !containsAny(strings.ToLower(f.Name), heuristicFieldHints) {
			continue
		}
		v := rec.Value(f.ID)
		if v == nil {
			continue
		}
		if strings.Contains(strings.ToLower(crm.ValueText(f, v)), keyword) {
			return true
		}
	}
	return false
}

func byTags(rec crm.Record, keyword string) bool {
	for _, t := range rec.Tags {
		if strings.Contains(strings.ToLower(t), keyword) {
			return true
		}
	}
	return false
}

func byName(rec crm.Record) bool {
	return containsAny(strings.ToLower(rec.Name), heuristicNameTerms)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
