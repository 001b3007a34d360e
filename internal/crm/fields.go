package crm

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// FieldIndex looks up fields by case-insensitive name. On duplicate names
// the first field wins.
type FieldIndex struct {
	byName map[string]Field
	byID   map[string]Field
}

// NewFieldIndex indexes fields.
func NewFieldIndex(fields []Field) FieldIndex {
	idx := FieldIndex{
		byName: make(map[string]Field, len(fields)),
		byID:   make(map[string]Field, len(fields)),
	}
	for _, f := range fields {
		key := strings.ToLower(f.Name)
		if _, dup := idx.byName[key]; !dup {
			idx.byName[key] = f
		}
		idx.byID[f.ID] = f
	}
	return idx
}

// Get returns the field named name.
func (idx FieldIndex) Get(name string) (Field, bool) {
	f, ok := idx.byName[strings.ToLower(name)]
	return f, ok
}

// ByID returns the field with the given ID.
func (idx FieldIndex) ByID(id string) (Field, bool) {
	f, ok := idx.byID[id]
	return f, ok
}

// Preferred returns the first of names that exists.
func (idx FieldIndex) Preferred(names ...string) (Field, bool) {
	for _, n := range names {
		if f, ok := idx.Get(n); ok {
			return f, true
		}
	}
	return Field{}, false
}

// Len returns the number of indexed fields.
func (idx FieldIndex) Len() int {
	return len(idx.byID)
}

// IsEmpty reports whether a stored value counts as unset: nil, blank
// strings, zero numbers, false and empty collections.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return !x
	case float64:
		return x == 0
	case int:
		return x == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ValueText renders a stored value as text. Labels values (option ID lists)
// and drop-down values (option ID or order index) resolve to option names.
func ValueText(f Field, v any) string {
	if v == nil {
		return ""
	}
	switch strings.ToLower(f.Type) {
	case TypeLabels:
		if ids, ok := v.([]any); ok {
			var names []string
			for _, id := range ids {
				if n, ok := f.OptionName(fmt.Sprint(id)); ok {
					names = append(names, n)
				}
			}
			return strings.Join(names, ", ")
		}
	case TypeDropDown:
		if n, ok := dropDownName(f, v); ok {
			return n
		}
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

func dropDownName(f Field, v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return f.OptionName(x)
	case float64:
		i := int(x)
		if float64(i) == x && i >= 0 && i < len(f.Options) {
			return f.Options[i].Name, true
		}
	}
	return "", false
}

// ValueIs reports whether a stored value denotes the option or text name,
// compared case-insensitively.
func ValueIs(f Field, v any, name string) bool {
	target := strings.ToLower(name)
	if strings.ToLower(f.Type) == TypeLabels {
		if ids, ok := v.([]any); ok {
			for _, id := range ids {
				if n, ok := f.OptionName(fmt.Sprint(id)); ok && strings.ToLower(n) == target {
					return true
				}
			}
			return false
		}
	}
	if items, ok := v.([]any); ok {
		for _, item := range items {
			if strings.ToLower(fmt.Sprint(item)) == target {
				return true
			}
		}
		return false
	}
	if n, ok := dropDownName(f, v); ok && strings.ToLower(n) == target {
		return true
	}
	s, ok := v.(string)
	return ok && strings.ToLower(s) == target
}

// ValueFor builds the value that stores name in f: an option ID for
// drop-downs, a one-element ID list for labels, the text otherwise. Unknown
// option names fall back to the text.
func ValueFor(f Field, name string) any {
	id, found := "", false
	target := strings.ToLower(name)
	for _, o := range f.Options {
		if strings.ToLower(o.Name) == target {
			id, found = o.ID, true
			break
		}
	}
	switch strings.ToLower(f.Type) {
	case TypeLabels:
		if found {
			return []string{id}
		}
		return []string{name}
	case TypeDropDown:
		if found {
			return id
		}
	}
	return name
}
