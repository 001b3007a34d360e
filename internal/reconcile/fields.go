package reconcile

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reconcile-cli/internal/crm"
)

// FieldHit is a field whose name or one of whose options contains a term.
type FieldHit struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Option string `json:"option,omitempty"`
	Where  string `json:"where"`
}

// Where values.
const (
	WhereFieldName = "field-name"
	WhereOption    = "option"
)

// FieldSearch reports at most one hit per field whose name or option names
// contain term, case-insensitively. A field-name hit wins; otherwise the
// first matching option is reported. An empty term means "brew".
func FieldSearch(fields []crm.Field, term string) []FieldHit {
	term = strings.ToLower(term)
	if term == "" {
		term = "brew"
	}
	hits := []FieldHit{}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f.Name), term) {
			hits = append(hits, FieldHit{ID: f.ID, Name: f.Name, Type: f.Type, Where: WhereFieldName})
			continue
		}
		for _, o := range f.Options {
			if strings.Contains(strings.ToLower(o.Name), term) {
				hits = append(hits, FieldHit{ID: f.ID, Name: f.Name, Type: f.Type, Option: o.Name, Where: WhereOption})
				break
			}
		}
	}
	return hits
}

// Fields loads the source's field definitions for dumping or searching.
func Fields(ctx context.Context, src crm.Source) ([]crm.Field, error) {
	fields, err := src.Fields(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: fields")
	}
	if fields == nil {
		fields = []crm.Field{}
	}
	return fields, nil
}
