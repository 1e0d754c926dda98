package models

import (
	"reflect"
	"strings"
)

// DefaultValue returns the seed value for a section of type t, so that every
// declared section always holds a value of the right shape.
func DefaultValue(t SectionType) any {
	switch t {
	case SectionText, SectionTextarea, SectionDate, SectionSignature, SectionRadio, SectionSelect:
		return ""
	case SectionList, SectionTable, SectionMatrix:
		return []any{}
	case SectionStructured, SectionFormFields:
		return map[string]any{}
	case SectionCheckbox:
		return false
	default:
		return nil
	}
}

// SeedData builds the initial data map of a new document: every top-level
// section gets its type default, then initial values are laid over it.
func SeedData(t *Template, initial map[string]any) map[string]any {
	data := make(map[string]any, len(t.Sections))
	for _, s := range t.Sections {
		data[s.ID] = DefaultValue(s.Type)
	}
	for k, v := range initial {
		data[k] = v
	}
	return data
}

// AsString returns v as a string when it holds one.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsMap returns v as a JSON-like object.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// AsSlice returns v as a generic sequence. Typed slices such as []string or
// []map[string]any are accepted as well as []any.
func AsSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// IsEmptyValue reports whether v carries no user content: nil, a blank
// string, an empty sequence or object, or false.
func IsEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case bool:
		return !val
	}
	if m, ok := AsMap(v); ok {
		for _, inner := range m {
			if !IsEmptyValue(inner) {
				return false
			}
		}
		return true
	}
	if s, ok := AsSlice(v); ok {
		return len(s) == 0
	}
	return false
}

// CloneValue deep-copies JSON-like values so stored documents never share
// maps or slices with callers.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = CloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = CloneValue(inner)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = CloneValue(inner)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = s
		}
		return out
	default:
		return v
	}
}
