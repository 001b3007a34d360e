// Package notiondb adapts a Notion database to crm.Source. Property names
// double as field IDs.
package notiondb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/sells-group/reconcile-cli/internal/crm"
	"github.com/sells-group/reconcile-cli/pkg/notion"
)

// Source reads and writes pages in one Notion database.
type Source struct {
	client         notion.Client
	dbID           string
	statusProperty string

	mu     sync.Mutex
	schema map[string]crm.Field
}

var _ crm.Source = (*Source)(nil)

// New returns a Source over dbID. statusProperty names the status or
// select property that Records filters on (default "Status").
func New(client notion.Client, dbID, statusProperty string) *Source {
	if statusProperty == "" {
		statusProperty = "Status"
	}
	return &Source{client: client, dbID: dbID, statusProperty: statusProperty}
}

// Records returns pages whose status property equals status.
func (s *Source) Records(ctx context.Context, status string) ([]crm.Record, error) {
	schema, err := s.loadSchema(ctx)
	if err != nil {
		return nil, err
	}
	statusType := ""
	if f, ok := schema[s.statusProperty]; ok {
		statusType = f.Type
	}

	property := s.statusProperty
	if status == "" {
		property = ""
	}
	pages, err := notion.QueryByStatus(ctx, s.client, s.dbID, property, statusType, status)
	if err != nil {
		return nil, eris.Wrap(err, "notion source: records")
	}
	out := make([]crm.Record, 0, len(pages))
	for _, p := range pages {
		out = append(out, s.toRecord(p))
	}
	return out, nil
}

// Fields returns the database properties, sorted by name.
func (s *Source) Fields(ctx context.Context) ([]crm.Field, error) {
	schema, err := s.loadSchema(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]crm.Field, 0, len(schema))
	for _, f := range schema {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Comments returns the text of the page's comments.
func (s *Source) Comments(ctx context.Context, recordID string) ([]string, error) {
	comments, err := notion.AllComments(ctx, s.client, recordID)
	if err != nil {
		return nil, eris.Wrap(err, "notion source: comments")
	}
	out := make([]string, 0, len(comments))
	for _, c := range comments {
		if text := notion.CommentText(c); text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

// SetField writes one property. The property type decides the payload shape.
func (s *Source) SetField(ctx context.Context, u crm.Update) error {
	schema, err := s.loadSchema(ctx)
	if err != nil {
		return err
	}
	f, ok := schema[u.FieldID]
	if !ok {
		return eris.Errorf("notion source: unknown property %q", u.FieldID)
	}
	prop, err := propertyFor(f, u.Value)
	if err != nil {
		return err
	}
	_, err = s.client.UpdatePage(ctx, u.RecordID, &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{f.ID: prop},
	})
	if err != nil {
		return eris.Wrapf(err, "notion source: set %s", f.Name)
	}
	return nil
}

func (s *Source) loadSchema(ctx context.Context) (map[string]crm.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schema != nil {
		return s.schema, nil
	}
	db, err := s.client.GetDatabase(ctx, s.dbID)
	if err != nil {
		return nil, eris.Wrap(err, "notion source: load schema")
	}
	schema := make(map[string]crm.Field, len(db.Properties))
	for name, cfg := range db.Properties {
		schema[name] = crm.Field{
			ID:      name,
			Name:    name,
			Type:    string(cfg.GetType()),
			Options: configOptions(cfg),
		}
	}
	s.schema = schema
	return schema, nil
}

// configOptions reads the option list of select, multi_select and status
// configs from their JSON form.
func configOptions(cfg notionapi.PropertyConfig) []crm.Option {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil
	}
	type optionList struct {
		Options []struct {
			Name string `json:"name"`
		} `json:"options"`
	}
	var shape struct {
		Select      *optionList `json:"select"`
		MultiSelect *optionList `json:"multi_select"`
		Status      *optionList `json:"status"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil
	}
	var list *optionList
	for _, l := range []*optionList{shape.Select, shape.MultiSelect, shape.Status} {
		if l != nil {
			list = l
			break
		}
	}
	if list == nil {
		return nil
	}
	out := make([]crm.Option, 0, len(list.Options))
	for _, o := range list.Options {
		out = append(out, crm.Option{ID: o.Name, Name: o.Name})
	}
	return out
}

func (s *Source) toRecord(p notionapi.Page) crm.Record {
	r := crm.Record{
		ID:     string(p.ID),
		URL:    p.URL,
		Values: make(map[string]any, len(p.Properties)),
	}
	for name, prop := range p.Properties {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			r.Name = notion.PlainText(tp.Title)
			continue
		}
		v := propertyValue(prop)
		if v == nil {
			continue
		}
		r.Values[name] = v
		if name == s.statusProperty {
			r.Status = fmt.Sprint(v)
		}
	}
	return r
}

func propertyValue(prop notionapi.Property) any {
	switch p := prop.(type) {
	case *notionapi.RichTextProperty:
		if t := notion.PlainText(p.RichText); t != "" {
			return t
		}
	case *notionapi.SelectProperty:
		if p.Select.Name != "" {
			return p.Select.Name
		}
	case *notionapi.StatusProperty:
		if p.Status.Name != "" {
			return p.Status.Name
		}
	case *notionapi.MultiSelectProperty:
		if len(p.MultiSelect) > 0 {
			names := make([]any, 0, len(p.MultiSelect))
			for _, o := range p.MultiSelect {
				names = append(names, o.Name)
			}
			return names
		}
	case *notionapi.URLProperty:
		if p.URL != "" {
			return p.URL
		}
	case *notionapi.EmailProperty:
		if p.Email != "" {
			return p.Email
		}
	case *notionapi.PhoneNumberProperty:
		if p.PhoneNumber != "" {
			return p.PhoneNumber
		}
	case *notionapi.NumberProperty:
		return p.Number
	}
	return nil
}

func propertyFor(f crm.Field, value any) (notionapi.Property, error) {
	text := fmt.Sprint(value)
	switch f.Type {
	case "rich_text":
		return notionapi.RichTextProperty{RichText: richText(text)}, nil
	case "title":
		return notionapi.TitleProperty{Title: richText(text)}, nil
	case "select":
		return notionapi.SelectProperty{Select: notionapi.Option{Name: text}}, nil
	case "status":
		return notionapi.StatusProperty{Status: notionapi.Status{Name: text}}, nil
	case "url":
		return notionapi.URLProperty{URL: text}, nil
	case "email":
		return notionapi.EmailProperty{Email: text}, nil
	case "phone_number":
		return notionapi.PhoneNumberProperty{PhoneNumber: text}, nil
	case "number":
		n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "notion source: %s expects a number", f.Name)
		}
		return notionapi.NumberProperty{Number: n}, nil
	}
	return nil, eris.Errorf("notion source: cannot write %s property %q", f.Type, f.Name)
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}
