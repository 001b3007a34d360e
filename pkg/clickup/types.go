package clickup

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Task is the subset of a ClickUp task this tool reads.
type Task struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	URL          string      `json:"url"`
	Status       TaskStatus  `json:"status"`
	Tags         []Tag       `json:"tags"`
	CustomFields []TaskField `json:"custom_fields"`
	// CustomType and Type are set by workspaces that use custom task types.
	CustomType any `json:"custom_type,omitempty"`
	Type       any `json:"type,omitempty"`
}

// TaskStatus is the status block embedded in a task.
type TaskStatus struct {
	Status string `json:"status"`
	Name   string `json:"name,omitempty"`
}

// Label returns the status name.
func (s TaskStatus) Label() string {
	if s.Status != "" {
		return s.Status
	}
	return s.Name
}

// Tag is a task tag.
type Tag struct {
	Name string `json:"name"`
}

// TaskField is a custom field value as it appears on a task. Value is raw
// JSON-decoded data: strings for text fields, option IDs (or order indexes)
// for drop_down, ID arrays for labels.
type TaskField struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

// Value returns the value of the custom field with the given ID.
func (t Task) Value(fieldID string) (any, bool) {
	for _, f := range t.CustomFields {
		if f.ID == fieldID {
			return f.Value, f.Value != nil
		}
	}
	return nil, false
}

// TypeName returns the task's custom type as text, or "".
func (t Task) TypeName() string {
	for _, v := range []any{t.CustomType, t.Type} {
		if v == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			return s
		}
	}
	return ""
}

// URLOrDefault returns the task URL, falling back to the public short link.
func (t Task) URLOrDefault() string {
	if t.URL != "" {
		return t.URL
	}
	return "https://app.clickup.com/t/" + t.ID
}

// Field is a list custom field definition.
type Field struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	TypeConfig TypeConfig `json:"type_config"`
}

// TypeConfig carries the option list of drop_down and labels fields.
type TypeConfig struct {
	Type    string        `json:"type,omitempty"`
	Options []FieldOption `json:"options,omitempty"`
}

// FieldOption is one drop_down or labels choice. Drop-down options use Name,
// labels use Label.
type FieldOption struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Label string `json:"label,omitempty"`
}

// Display returns Name, or Label when Name is empty.
func (o FieldOption) Display() string {
	if o.Name != "" {
		return o.Name
	}
	return o.Label
}

// FieldType returns Type, falling back to the type_config type.
func (f Field) FieldType() string {
	if f.Type != "" {
		return f.Type
	}
	return f.TypeConfig.Type
}

// Comment is a task comment. The body arrives either as a rich-text array
// in "comment" or as flat text in one of the text fields.
type Comment struct {
	ID          string          `json:"id"`
	Comment     json.RawMessage `json:"comment,omitempty"`
	TextContent string          `json:"text_content,omitempty"`
	CommentText string          `json:"comment_text,omitempty"`
	Text        string          `json:"text,omitempty"`
}

// PlainText flattens the comment body. Rich-text parts are concatenated.
func (c Comment) PlainText() string {
	if len(c.Comment) > 0 && string(c.Comment) != "null" {
		var s string
		if err := json.Unmarshal(c.Comment, &s); err == nil {
			return s
		}
		var parts []struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(c.Comment, &parts); err == nil {
			var b strings.Builder
			for _, p := range parts {
				b.WriteString(p.Text)
			}
			return b.String()
		}
	}
	for _, s := range []string{c.TextContent, c.CommentText, c.Text} {
		if s != "" {
			return s
		}
	}
	return ""
}

type tasksResponse struct {
	Tasks    []Task `json:"tasks"`
	LastPage bool   `json:"last_page"`
}

type fieldsResponse struct {
	Fields []Field `json:"fields"`
}

type commentsResponse struct {
	Comments []Comment `json:"comments"`
}
