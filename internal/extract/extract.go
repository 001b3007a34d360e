// Package extract pulls contact details out of free-form comment text using
// an ordered list of independent per-field rules.
package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/reconcile-cli/internal/convert"
)

// Field names a contact attribute.
type Field string

// Contact fields.
const (
	FieldName  Field = "name"
	FieldEmail Field = "email"
	FieldPhone Field = "phone"
	FieldTitle Field = "title"
)

// Fields lists every contact field.
func Fields() []Field {
	return []Field{FieldName, FieldEmail, FieldPhone, FieldTitle}
}

// Contact holds extracted values. Empty strings are absent.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Title string `json:"title,omitempty"`
}

// Get returns the value for f.
func (c Contact) Get(f Field) string {
	switch f {
	case FieldName:
		return c.Name
	case FieldEmail:
		return c.Email
	case FieldPhone:
		return c.Phone
	case FieldTitle:
		return c.Title
	}
	return ""
}

func (c *Contact) set(f Field, v string) {
	switch f {
	case FieldName:
		c.Name = v
	case FieldEmail:
		c.Email = v
	case FieldPhone:
		c.Phone = v
	case FieldTitle:
		c.Title = v
	}
}

// Empty reports whether nothing was extracted.
func (c Contact) Empty() bool {
	return c == Contact{}
}

// Rule extracts one field. Only the first match of Pattern is considered;
// the value is capture group 1 when the pattern has one, else the whole
// match. Transform may rewrite or reject the trimmed value.
type Rule struct {
	Field     Field
	Pattern   *regexp.Regexp
	Transform func(string) (string, bool)
}

func (r Rule) apply(text string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	v := m[0]
	if len(m) > 1 {
		v = m[1]
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	if r.Transform != nil {
		return r.Transform(v)
	}
	return v, true
}

// LabeledLine matches a line of the form "<label>: value" for any of labels,
// case-insensitively, capturing the value. The value never extends past the
// label's own line, so a blank label yields nothing.
func LabeledLine(labels ...string) *regexp.Regexp {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = regexp.QuoteMeta(l)
	}
	return regexp.MustCompile(`(?i)(?:^|\n)[ \t]*(?:` + strings.Join(quoted, "|") + `)[ \t]*:[ \t]*([^\r\n]*)`)
}

var emailRe = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)

// DefaultRules returns the built-in rules. Phone values that are not US
// numbers are dropped.
func DefaultRules() []Rule {
	return []Rule{
		{Field: FieldEmail, Pattern: emailRe},
		{Field: FieldPhone, Pattern: LabeledLine("Phone", "Phone Number", "Mobile", "Cell"), Transform: convert.USPhone},
		{Field: FieldName, Pattern: LabeledLine("Name", "Contact", "Contact Person", "Primary Contact", "Key Contact", "Contact (Main)")},
		{Field: FieldTitle, Pattern: LabeledLine("Title", "Role", "Position", "Your Role")},
	}
}

// Extractor applies rules in order; the first rule to yield a value for a
// field wins and later rules for that field are skipped.
type Extractor struct {
	rules []Rule
}

// New returns an Extractor over rules.
func New(rules []Rule) *Extractor {
	return &Extractor{rules: rules}
}

// Default returns an Extractor over DefaultRules.
func Default() *Extractor {
	return New(DefaultRules())
}

// Extract runs the rules over text.
func (e *Extractor) Extract(text string) Contact {
	var c Contact
	if strings.TrimSpace(text) == "" {
		return c
	}
	for _, r := range e.rules {
		if c.Get(r.Field) != "" {
			continue
		}
		if v, ok := r.apply(text); ok {
			c.set(r.Field, v)
		}
	}
	return c
}

var defaultExtractor = Default()

// Extract runs DefaultRules over text.
func Extract(text string) Contact {
	return defaultExtractor.Extract(text)
}
