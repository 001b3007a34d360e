// Package clickup adapts a ClickUp list to crm.Source.
package clickup

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reconcile-cli/internal/crm"
	cu "github.com/sells-group/reconcile-cli/pkg/clickup"
)

// Source reads and writes tasks in one ClickUp list.
type Source struct {
	client cu.Client
	listID string
}

var (
	_ crm.Source     = (*Source)(nil)
	_ crm.TypeSetter = (*Source)(nil)
)

// New returns a Source over listID.
func New(client cu.Client, listID string) *Source {
	return &Source{client: client, listID: listID}
}

// Records returns the list's tasks in status (all tasks when empty).
func (s *Source) Records(ctx context.Context, status string) ([]crm.Record, error) {
	tasks, err := cu.AllTasks(ctx, s.client, s.listID, status)
	if err != nil {
		return nil, eris.Wrap(err, "clickup source: records")
	}
	out := make([]crm.Record, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toRecord(t))
	}
	return out, nil
}

// Fields returns the list's custom fields.
func (s *Source) Fields(ctx context.Context) ([]crm.Field, error) {
	fields, err := s.client.ListFields(ctx, s.listID)
	if err != nil {
		return nil, eris.Wrap(err, "clickup source: fields")
	}
	out := make([]crm.Field, 0, len(fields))
	for _, f := range fields {
		cf := crm.Field{ID: f.ID, Name: f.Name, Type: f.FieldType()}
		for _, o := range f.TypeConfig.Options {
			cf.Options = append(cf.Options, crm.Option{ID: o.ID, Name: o.Display()})
		}
		out = append(out, cf)
	}
	return out, nil
}

// Comments returns the flattened text of each task comment.
func (s *Source) Comments(ctx context.Context, recordID string) ([]string, error) {
	comments, err := s.client.TaskComments(ctx, recordID)
	if err != nil {
		return nil, eris.Wrap(err, "clickup source: comments")
	}
	out := make([]string, 0, len(comments))
	for _, c := range comments {
		if text := c.PlainText(); text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

// SetField writes a custom field value.
func (s *Source) SetField(ctx context.Context, u crm.Update) error {
	if u.FieldID == "" {
		return eris.Errorf("clickup source: update for %s has no field id", u.RecordID)
	}
	return s.client.SetCustomField(ctx, u.RecordID, u.FieldID, u.Value)
}

// SetType sets the task's custom task type.
func (s *Source) SetType(ctx context.Context, recordID, typeName string) error {
	return s.client.SetCustomType(ctx, recordID, typeName)
}

func toRecord(t cu.Task) crm.Record {
	r := crm.Record{
		ID:     t.ID,
		Name:   t.Name,
		URL:    t.URLOrDefault(),
		Status: t.Status.Label(),
		Type:   t.TypeName(),
		Values: make(map[string]any, len(t.CustomFields)),
	}
	for _, tag := range t.Tags {
		r.Tags = append(r.Tags, tag.Name)
	}
	for _, f := range t.CustomFields {
		if f.Value != nil {
			r.Values[f.ID] = f.Value
		}
	}
	return r
}

// String identifies the source in logs.
func (s *Source) String() string {
	return fmt.Sprintf("clickup list %s", s.listID)
}
