// Package validation implements the pure checks run against document data:
// a cheap boolean completeness check used for progress tracking, and a full
// validation that itemizes errors and warnings before submission.
package validation

import (
	"math"
	"strings"
	"unicode/utf8"

	"DF-FORMS/internal/models"
)

// Thresholds applied when a required section does not set its own rule.
const (
	DefaultMinLength = 10
	DefaultMinItems  = 1
	DefaultMinRows   = 1
)

// maxDepth stops recursion on templates that were never passed through
// models.ValidateTemplate.
const maxDepth = 64

// IsSectionComplete reports whether value satisfies the minimal thresholds of
// section s. Optional sections are always complete; a required section is
// never complete while empty, even with a zero minimum.
func IsSectionComplete(s *models.Section, value any) bool {
	return isComplete(s, value, 1)
}

func isComplete(s *models.Section, value any, depth int) bool {
	if s == nil || depth > maxDepth {
		return false
	}
	if !s.Required {
		return true
	}

	switch s.Type {
	case models.SectionText, models.SectionTextarea:
		str, ok := models.AsString(value)
		n := textLength(str)
		return ok && n > 0 && n >= minLength(s.Validation, true)

	case models.SectionList:
		items, ok := models.AsSlice(value)
		return ok && len(items) > 0 && len(items) >= minItems(s.Validation, true)

	case models.SectionTable, models.SectionMatrix:
		rows, ok := models.AsSlice(value)
		return ok && len(rows) > 0 && len(rows) >= minRows(s.Validation, true)

	case models.SectionStructured:
		obj, ok := models.AsMap(value)
		if !ok || (len(s.Subsections) == 0 && models.IsEmptyValue(obj)) {
			return false
		}
		for _, sub := range s.Subsections {
			if !isComplete(sub, obj[sub.ID], depth+1) {
				return false
			}
		}
		return true

	case models.SectionFormFields:
		obj, ok := models.AsMap(value)
		if !ok {
			return false
		}
		for _, f := range s.Fields {
			if f.Required && fieldString(obj[f.ID]) == "" {
				return false
			}
		}
		return true

	case models.SectionDate, models.SectionSignature, models.SectionRadio, models.SectionSelect:
		str, ok := models.AsString(value)
		return ok && strings.TrimSpace(str) != ""

	case models.SectionCheckbox:
		checked, ok := value.(bool)
		return ok && checked

	default:
		return false
	}
}

// CompletionPercentage returns the share of top-level sections that are
// complete, rounded to the nearest integer percent. Subsections only count
// through their parent.
func CompletionPercentage(t *models.Template, data map[string]any) int {
	if t == nil || len(t.Sections) == 0 {
		return 0
	}
	completed := 0
	for _, s := range t.Sections {
		if IsSectionComplete(s, data[s.ID]) {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(t.Sections)) * 100))
}

func textLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func minLength(r *models.ValidationRules, required bool) int {
	if r != nil && r.MinLength != nil {
		return *r.MinLength
	}
	if required {
		return DefaultMinLength
	}
	return 0
}

func minItems(r *models.ValidationRules, required bool) int {
	if r != nil && r.MinItems != nil {
		return *r.MinItems
	}
	if required {
		return DefaultMinItems
	}
	return 0
}

func minRows(r *models.ValidationRules, required bool) int {
	if r != nil && r.MinRows != nil {
		return *r.MinRows
	}
	if required {
		return DefaultMinRows
	}
	return 0
}
