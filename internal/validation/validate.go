package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"DF-FORMS/internal/models"
)

// Report holds the messages produced for one section. Errors block
// submission, warnings do not.
type Report struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OK reports whether the section has no errors.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// merge appends nested messages prefixed with "<label>: ".
func (r *Report) merge(label string, nested Report) {
	for _, m := range nested.Errors {
		r.Errors = append(r.Errors, label+": "+m)
	}
	for _, m := range nested.Warnings {
		r.Warnings = append(r.Warnings, label+": "+m)
	}
}

const msgRequired = "This field is required"

var (
	patternCache sync.Map // string -> *regexp.Regexp
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{7,20}$`)
)

// ValidateSection runs the full rule set of s against value.
func ValidateSection(s *models.Section, value any) Report {
	return validateSection(s, value, 1)
}

func validateSection(s *models.Section, value any, depth int) Report {
	var r Report
	if s == nil {
		return r
	}
	if depth > maxDepth {
		r.errorf("Section nesting is too deep")
		return r
	}

	switch s.Type {
	case models.SectionText, models.SectionTextarea:
		validateText(&r, s, value)
	case models.SectionList:
		validateList(&r, s, value)
	case models.SectionTable, models.SectionMatrix:
		validateRows(&r, s, value)
	case models.SectionStructured:
		validateStructured(&r, s, value, depth)
	case models.SectionFormFields:
		validateFormFields(&r, s, value)
	case models.SectionDate:
		validateDate(&r, s, value)
	case models.SectionSignature:
		validateSignature(&r, s, value)
	case models.SectionCheckbox:
		validateCheckbox(&r, s, value)
	case models.SectionRadio, models.SectionSelect:
		validateChoice(&r, s, value)
	default:
		r.errorf("Unsupported section type %q", s.Type)
	}
	return r
}

func validateText(r *Report, s *models.Section, value any) {
	str, ok := models.AsString(value)
	if !ok && value != nil {
		r.errorf("Expected text")
		return
	}
	n := textLength(str)
	if n == 0 {
		if s.Required {
			r.errorf(msgRequired)
		}
		return
	}
	if min := minLength(s.Validation, s.Required); n < min {
		r.errorf("Must be at least %d characters (currently %d)", min, n)
	}
	if s.Validation != nil && s.Validation.MaxLength != nil && n > *s.Validation.MaxLength {
		r.warnf("Exceeds the recommended maximum of %d characters (currently %d)", *s.Validation.MaxLength, n)
	}
	if s.Validation != nil && !matchesPattern(s.Validation.Pattern, strings.TrimSpace(str)) {
		r.errorf("Does not match the required format")
	}
}

func validateList(r *Report, s *models.Section, value any) {
	items, ok := models.AsSlice(value)
	if !ok && value != nil {
		r.errorf("Expected a list")
		return
	}
	n := len(items)
	if n == 0 {
		if s.Required {
			r.errorf("At least one item is required")
		}
		return
	}
	if min := minItems(s.Validation, s.Required); n < min {
		r.errorf("At least %d items required (currently %d)", min, n)
	}
	if s.Validation != nil && s.Validation.MaxItems != nil && n > *s.Validation.MaxItems {
		r.warnf("Exceeds the recommended maximum of %d items (currently %d)", *s.Validation.MaxItems, n)
	}
	for i, item := range items {
		if models.IsEmptyValue(item) {
			r.warnf("Item %d is empty", i+1)
		}
	}
}

func validateRows(r *Report, s *models.Section, value any) {
	rows, ok := models.AsSlice(value)
	if !ok && value != nil {
		r.errorf("Expected table rows")
		return
	}
	n := len(rows)
	if n == 0 {
		if s.Required {
			r.errorf("At least one row is required")
		}
		return
	}
	if min := minRows(s.Validation, s.Required); n < min {
		r.errorf("At least %d rows required (currently %d)", min, n)
	}
	if s.Validation != nil && s.Validation.MaxRows != nil && n > *s.Validation.MaxRows {
		r.warnf("Exceeds the recommended maximum of %d rows (currently %d)", *s.Validation.MaxRows, n)
	}
	if len(s.Headers) == 0 {
		return
	}
	for i, row := range rows {
		if cells, ok := models.AsSlice(row); ok && len(cells) != len(s.Headers) {
			r.warnf("Row %d has %d cells, expected %d", i+1, len(cells), len(s.Headers))
		}
	}
}

func validateStructured(r *Report, s *models.Section, value any, depth int) {
	obj, ok := models.AsMap(value)
	if !ok {
		if value != nil {
			r.errorf("Expected structured content")
			return
		}
		obj = map[string]any{}
	}
	if models.IsEmptyValue(obj) {
		if !s.Required {
			return
		}
		if len(s.Subsections) == 0 {
			r.errorf(msgRequired)
			return
		}
	}
	for _, sub := range s.Subsections {
		r.merge(sub.Label(), validateSection(sub, obj[sub.ID], depth+1))
	}
}

func validateFormFields(r *Report, s *models.Section, value any) {
	obj, ok := models.AsMap(value)
	if !ok {
		if value != nil {
			r.errorf("Expected form data")
			return
		}
		obj = map[string]any{}
	}
	if !s.Required && models.IsEmptyValue(obj) {
		return
	}
	for _, f := range s.Fields {
		label := f.Label
		if label == "" {
			label = f.ID
		}
		var fr Report
		validateField(&fr, f, obj[f.ID])
		r.merge(label, fr)
	}
}

func validateField(r *Report, f models.FormField, value any) {
	str := fieldString(value)
	if str == "" {
		if f.Required {
			r.errorf(msgRequired)
		}
		return
	}
	n := textLength(str)
	if f.Validation != nil {
		if f.Validation.MinLength != nil && n < *f.Validation.MinLength {
			r.errorf("Must be at least %d characters (currently %d)", *f.Validation.MinLength, n)
		}
		if f.Validation.MaxLength != nil && n > *f.Validation.MaxLength {
			r.warnf("Exceeds the recommended maximum of %d characters (currently %d)", *f.Validation.MaxLength, n)
		}
		if !matchesPattern(f.Validation.Pattern, str) {
			r.errorf("Does not match the required format")
		}
	}

	switch f.Type {
	case models.FieldEmail:
		if _, err := mail.ParseAddress(str); err != nil {
			r.errorf("Invalid email address")
		}
	case models.FieldNumber:
		if _, err := strconv.ParseFloat(str, 64); err != nil {
			r.errorf("Must be a number")
		}
	case models.FieldDate:
		if !isDate(str) {
			r.errorf("Invalid date")
		}
	case models.FieldPhone:
		if !phonePattern.MatchString(str) {
			r.errorf("Invalid phone number")
		}
	case models.FieldSelect:
		if len(f.Options) > 0 && !contains(f.Options, str) {
			r.errorf("Invalid option %q", str)
		}
	}
}

func validateDate(r *Report, s *models.Section, value any) {
	str, ok := models.AsString(value)
	if !ok && value != nil {
		r.errorf("Expected a date")
		return
	}
	str = strings.TrimSpace(str)
	if str == "" {
		if s.Required {
			r.errorf(msgRequired)
		}
		return
	}
	if !isDate(str) {
		r.errorf("Invalid date")
	}
}

func validateSignature(r *Report, s *models.Section, value any) {
	str, ok := models.AsString(value)
	if !ok && value != nil {
		r.errorf("Expected a signature")
		return
	}
	if strings.TrimSpace(str) == "" && s.Required {
		r.errorf("Signature is required")
	}
}

func validateCheckbox(r *Report, s *models.Section, value any) {
	checked, ok := value.(bool)
	if !ok && value != nil {
		r.errorf("Expected true or false")
		return
	}
	if s.Required && !checked {
		r.errorf("Must be checked")
	}
}

func validateChoice(r *Report, s *models.Section, value any) {
	str, ok := models.AsString(value)
	if !ok && value != nil {
		r.errorf("Expected a selected option")
		return
	}
	str = strings.TrimSpace(str)
	if str == "" {
		if s.Required {
			r.errorf(msgRequired)
		}
		return
	}
	if len(s.Options) > 0 && !contains(s.Options, str) {
		r.errorf("Invalid option %q", str)
	}
}

// ValidateDocument validates every top-level section of t against data. The
// returned result carries no timestamp; callers stamp ValidatedAt.
func ValidateDocument(t *models.Template, data map[string]any) *models.ValidationResult {
	result := &models.ValidationResult{
		Errors:   []models.SectionIssues{},
		Warnings: []models.SectionIssues{},
	}
	if t == nil {
		return result
	}

	for _, s := range t.Sections {
		report := ValidateSection(s, data[s.ID])
		result.SectionsValidated++
		if len(report.Errors) > 0 {
			result.SectionsWithErrors++
			result.Errors = append(result.Errors, models.SectionIssues{
				SectionID: s.ID, SectionTitle: s.Title, Messages: report.Errors,
			})
		}
		if len(report.Warnings) > 0 {
			result.Warnings = append(result.Warnings, models.SectionIssues{
				SectionID: s.ID, SectionTitle: s.Title, Messages: report.Warnings,
			})
		}
	}

	var unknown []string
	for key := range data {
		if _, ok := t.Section(key); !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		result.Warnings = append(result.Warnings, models.SectionIssues{
			SectionID: key, Messages: []string{"Data for an undeclared section is ignored"},
		})
	}

	result.Valid = result.SectionsWithErrors == 0
	result.CompletionPercentage = CompletionPercentage(t, data)
	return result
}

// fieldString renders a form field value as trimmed text for emptiness and
// format checks.
func fieldString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case bool:
		if val {
			return "true"
		}
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func matchesPattern(pattern, s string) bool {
	if pattern == "" {
		return true
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}

func isDate(s string) bool {
	if _, err := time.Parse(models.DateLayout, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
