package reconcile

import (
	"strings"

	"github.com/sells-group/reconcile-cli/internal/crm"
)

// TypePlanner plans the reclassification of records from one type name to
// another, e.g. "task" to "account".
type TypePlanner struct {
	From string
	To   string

	fields crm.FieldIndex
	all    []crm.Field
}

// NewTypePlanner returns a planner over the list's field definitions.
// Empty names default to "task" and "account".
func NewTypePlanner(fields []crm.Field, from, to string) *TypePlanner {
	if from == "" {
		from = "task"
	}
	if to == "" {
		to = "account"
	}
	return &TypePlanner{From: from, To: to, fields: crm.NewFieldIndex(fields), all: fields}
}

var typeFieldNames = []string{"task type", "type", "record type", "crm type"}

// FindTypeField picks the field that most likely holds the record type: an
// exact name with options, then a name containing "task type" or "type" with
// options, then any option field offering both type names.
func (p *TypePlanner) FindTypeField() (crm.Field, bool) {
	for _, name := range typeFieldNames {
		if f, ok := p.fields.Get(name); ok && f.HasOptions() {
			return f, true
		}
	}
	for _, sub := range []string{"task type", "type"} {
		for _, f := range p.all {
			if f.HasOptions() && strings.Contains(strings.ToLower(f.Name), sub) {
				return f, true
			}
		}
	}
	for _, f := range p.all {
		if hasOptionNamed(f, p.From) && hasOptionNamed(f, p.To) {
			return f, true
		}
	}
	return crm.Field{}, false
}

func hasOptionNamed(f crm.Field, name string) bool {
	for _, o := range f.Options {
		if strings.EqualFold(o.Name, name) {
			return true
		}
	}
	return false
}

// candidate reports whether f could hold a record type.
func (p *TypePlanner) candidate(f crm.Field) bool {
	name := strings.ToLower(f.Name)
	if strings.Contains(name, "type") || strings.Contains(name, "record") {
		return true
	}
	from, to := strings.ToLower(p.From), strings.ToLower(p.To)
	for _, o := range f.Options {
		n := strings.ToLower(o.Name)
		if strings.Contains(n, from) || strings.Contains(n, to) {
			return true
		}
	}
	return false
}

// Plan returns at most one update for rec. A type-like field holding From is
// rewritten to To; otherwise, when the record's native type is empty or
// From, a type write is planned.
func (p *TypePlanner) Plan(rec crm.Record) Plan {
	plan := Plan{Record: rec}
	for _, f := range p.all {
		v := rec.Value(f.ID)
		if v == nil || !p.candidate(f) || !crm.ValueIs(f, v, p.From) {
			continue
		}
		var value any = p.To
		if f.HasOptions() {
			value = crm.ValueFor(f, p.To)
		}
		plan.Updates = append(plan.Updates, crm.Update{
			Kind:       crm.KindField,
			RecordID:   rec.ID,
			RecordName: rec.Name,
			FieldID:    f.ID,
			FieldName:  f.Name,
			Value:      value,
		})
		return plan
	}
	if rec.Type == "" || strings.EqualFold(rec.Type, p.From) {
		plan.Updates = append(plan.Updates, crm.Update{
			Kind:       crm.KindType,
			RecordID:   rec.ID,
			RecordName: rec.Name,
			FieldName:  "custom_type",
			Value:      p.To,
		})
	}
	return plan
}
