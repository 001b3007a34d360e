package reconcile

import (
	"strings"

	"github.com/sells-group/reconcile-cli/internal/convert"
	"github.com/sells-group/reconcile-cli/internal/crm"
)

// Column converters.
const (
	ConvertNone           = ""
	ConvertUSPhone        = "us_phone"
	ConvertEmployeeBucket = "employee_bucket"
)

// ColumnMapping copies one export column into one CRM field.
type ColumnMapping struct {
	Column string `mapstructure:"column" json:"column"`
	Field  string `mapstructure:"field" json:"field"`
	// Convert names a converter applied to the cell.
	Convert string `mapstructure:"convert" json:"convert,omitempty"`
	// RangeColumn is the fallback range cell for employee_bucket.
	RangeColumn string `mapstructure:"range_column" json:"range_column,omitempty"`
}

// DefaultMapping is the brewery export to CRM list mapping.
func DefaultMapping() []ColumnMapping {
	return []ColumnMapping{
		{Column: "Address", Field: "address"},
		{Column: "City", Field: "city"},
		{Column: "State", Field: "state"},
		{Column: "ZIP Code", Field: "zip code"},
		{Column: "Website", Field: "company_website"},
		{Column: "Twitter", Field: "twitter"},
		{Column: "Linked-In", Field: "linkedin"},
		{Column: "Facebook", Field: "facebook"},
		{Column: "Phone Number Combined", Field: "contact (main) phone number", Convert: ConvertUSPhone},
		{
			Column:      "Location Employee Size Actual",
			RangeColumn: "Location Employee Size Range",
			Field:       "employee count",
			Convert:     ConvertEmployeeBucket,
		},
	}
}

// CSVPlanner plans field back-fills from matched export rows.
type CSVPlanner struct {
	rows    *Rows
	mapping []ColumnMapping
}

// NewCSVPlanner returns a planner over rows. A nil mapping uses DefaultMapping.
func NewCSVPlanner(rows *Rows, mapping []ColumnMapping) *CSVPlanner {
	if len(mapping) == 0 {
		mapping = DefaultMapping()
	}
	return &CSVPlanner{rows: rows, mapping: mapping}
}

// Plan matches rec and plans one update per mapped field with a usable
// value. The second result is false when no row matched.
func (p *CSVPlanner) Plan(rec crm.Record, fields crm.FieldIndex, overwrite bool) (Plan, bool) {
	plan := Plan{Record: rec}
	res := p.rows.Match(rec.Name)
	row, ok := p.rows.Row(res)
	if !ok {
		return plan, false
	}
	plan.Match = res.Candidate.DisplayName
	plan.Score = res.Rounded()
	plan.Tier = res.Tier

	t := p.rows.Table
	for _, m := range p.mapping {
		f, ok := fields.Get(m.Field)
		if !ok {
			continue
		}
		cell, _ := t.At(row, m.Column)
		value, ok := convertCell(m, f, cell, func(col string) string {
			v, _ := t.At(row, col)
			return v
		})
		if !ok {
			continue
		}
		planValue(&plan, f, value, overwrite)
	}
	return plan, true
}

func convertCell(m ColumnMapping, f crm.Field, cell string, at func(string) string) (any, bool) {
	switch m.Convert {
	case ConvertUSPhone:
		return convert.USPhone(cell)
	case ConvertEmployeeBucket:
		bucket, ok := convert.EmployeeBucketFor(cell, at(m.RangeColumn))
		if !ok {
			return nil, false
		}
		if !f.HasOptions() {
			return bucket.String(), true
		}
		for _, o := range f.Options {
			if strings.EqualFold(o.Name, bucket.String()) {
				return o.ID, true
			}
		}
		return nil, false
	default:
		if cell == "" {
			return nil, false
		}
		return cell, true
	}
}
