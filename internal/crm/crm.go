// Package crm defines the contract between the reconcile pipeline and a CRM
// backend: records with custom field values, field definitions with option
// lists, free-text comments, and single-field writes.
package crm

import (
	"context"
	"strings"
)

// Source is a CRM backend.
type Source interface {
	// Records returns the records in the given status, or all records when
	// status is empty.
	Records(ctx context.Context, status string) ([]Record, error)
	// Fields returns the custom field definitions.
	Fields(ctx context.Context) ([]Field, error)
	// Comments returns the plain text of a record's comments, oldest first.
	Comments(ctx context.Context, recordID string) ([]string, error)
	// SetField writes one field value.
	SetField(ctx context.Context, u Update) error
}

// TypeSetter is implemented by backends with a native record type that can
// be set independently of custom fields.
type TypeSetter interface {
	SetType(ctx context.Context, recordID, typeName string) error
}

// Record is one CRM entry.
type Record struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	URL    string         `json:"url,omitempty"`
	Status string         `json:"status,omitempty"`
	Type   string         `json:"type,omitempty"`
	Tags   []string       `json:"tags,omitempty"`
	Values map[string]any `json:"values,omitempty"` // keyed by Field.ID
}

// Value returns the raw value stored for fieldID.
func (r Record) Value(fieldID string) any {
	if r.Values == nil {
		return nil
	}
	return r.Values[fieldID]
}

// Field is a custom field definition.
type Field struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    string   `json:"type,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// Option is one choice of a drop-down or labels field.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Field types with option semantics.
const (
	TypeDropDown = "drop_down"
	TypeLabels   = "labels"
)

// HasOptions reports whether the field carries an option list.
func (f Field) HasOptions() bool {
	return len(f.Options) > 0
}

// OptionID resolves an option name to its ID: case-insensitive exact match
// first, then substring.
func (f Field) OptionID(name string) (string, bool) {
	target := strings.ToLower(name)
	for _, o := range f.Options {
		if strings.ToLower(o.Name) == target {
			return o.ID, true
		}
	}
	for _, o := range f.Options {
		if strings.Contains(strings.ToLower(o.Name), target) {
			return o.ID, true
		}
	}
	return "", false
}

// OptionName resolves an option ID to its name.
func (f Field) OptionName(id string) (string, bool) {
	for _, o := range f.Options {
		if o.ID == id {
			return o.Name, true
		}
	}
	return "", false
}

// UpdateKind distinguishes custom-field writes from record-type writes.
type UpdateKind string

const (
	KindField UpdateKind = "field"
	KindType  UpdateKind = "type"
)

// Update is one planned write.
type Update struct {
	Kind       UpdateKind `json:"kind"`
	RecordID   string     `json:"record_id"`
	RecordName string     `json:"record_name"`
	FieldID    string     `json:"field_id,omitempty"`
	FieldName  string     `json:"field_name"`
	Value      any        `json:"value"`
	Match      string     `json:"match,omitempty"`
}

// Label names the target of the write for logs.
func (u Update) Label() string {
	if u.FieldName != "" {
		return u.FieldName
	}
	return u.FieldID
}
