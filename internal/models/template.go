package models

import (
	"time"
)

// TemplateCategory represents the template category
type TemplateCategory string

const (
	CategoryComplianceDeliverable TemplateCategory = "compliance_deliverable" // Entregable de estándar de competencia
	CategoryCertificate           TemplateCategory = "certificate"
	CategoryEvaluation            TemplateCategory = "evaluation"
	CategoryTrainingMaterial      TemplateCategory = "training_material"
	CategoryCustom                TemplateCategory = "custom"
)

// SectionType is the closed set of section kinds a template may declare.
type SectionType string

const (
	SectionText       SectionType = "text"
	SectionTextarea   SectionType = "textarea"
	SectionList       SectionType = "list"
	SectionTable      SectionType = "table"
	SectionMatrix     SectionType = "matrix"
	SectionStructured SectionType = "structured"
	SectionFormFields SectionType = "form_fields"
	SectionSignature  SectionType = "signature"
	SectionDate       SectionType = "date"
	SectionCheckbox   SectionType = "checkbox"
	SectionRadio      SectionType = "radio"
	SectionSelect     SectionType = "select"
)

var sectionTypes = []SectionType{
	SectionText, SectionTextarea, SectionList, SectionTable, SectionMatrix,
	SectionStructured, SectionFormFields, SectionSignature, SectionDate,
	SectionCheckbox, SectionRadio, SectionSelect,
}

// AllSectionTypes returns every supported section type in declaration order.
func AllSectionTypes() []SectionType {
	out := make([]SectionType, len(sectionTypes))
	copy(out, sectionTypes)
	return out
}

// Valid reports whether t belongs to the closed set.
func (t SectionType) Valid() bool {
	for _, st := range sectionTypes {
		if st == t {
			return true
		}
	}
	return false
}

// FieldType represents the input type of a form_fields sub-field
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
	FieldPhone    FieldType = "phone"
)

// ValidationRules bundles the optional constraints of a section or field.
// Nil pointers mean "not set".
type ValidationRules struct {
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	MinItems  *int   `json:"minItems,omitempty"`
	MaxItems  *int   `json:"maxItems,omitempty"`
	MinRows   *int   `json:"minRows,omitempty"`
	MaxRows   *int   `json:"maxRows,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
}

// FormField is one typed sub-field of a form_fields section
type FormField struct {
	ID          string           `json:"id"`
	Label       string           `json:"label"`
	Type        FieldType        `json:"type,omitempty"`
	Required    bool             `json:"required,omitempty"`
	Placeholder string           `json:"placeholder,omitempty"`
	Validation  *ValidationRules `json:"validation,omitempty"`
	Options     []string         `json:"options,omitempty"` // For select fields
}

// Section is one typed field or group of a template. Structured sections
// nest further sections through Subsections.
type Section struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Type        SectionType      `json:"type"`
	Required    bool             `json:"required"`
	Validation  *ValidationRules `json:"validation,omitempty"`
	Headers     []string         `json:"headers,omitempty"`     // table / matrix
	Fields      []FormField      `json:"fields,omitempty"`      // form_fields
	Subsections []*Section       `json:"subsections,omitempty"` // structured
	Options     []string         `json:"options,omitempty"`     // radio / select
}

// Label returns the title used to prefix nested validation messages.
func (s *Section) Label() string {
	if s.Title != "" {
		return s.Title
	}
	return s.ID
}

// Template is a reusable document schema. It is treated as immutable once
// documents reference it.
type Template struct {
	ID                 string           `json:"id"`
	TenantID           *string          `json:"tenantId,omitempty"` // nil for system templates
	Name               string           `json:"name"`
	Description        string           `json:"description,omitempty"`
	Category           TemplateCategory `json:"category"`
	StandardCode       string           `json:"standardCode,omitempty"` // e.g. EC0217
	ElementCode        string           `json:"elementCode,omitempty"`  // e.g. E0875
	Sections           []*Section       `json:"sections"`
	EvaluationCriteria []string         `json:"evaluationCriteria,omitempty"`
	IsRequired         bool             `json:"isRequired"`
	ExportFormats      []ExportFormat   `json:"exportFormats,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// IsSystem reports whether the template is provided by the platform rather
// than a tenant.
func (t *Template) IsSystem() bool {
	return t.TenantID == nil
}

// Section returns the top-level section with the given id.
func (t *Template) Section(id string) (*Section, bool) {
	for _, s := range t.Sections {
		if s != nil && s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// SupportsFormat reports whether the template may be exported as f. An empty
// ExportFormats list allows every format.
func (t *Template) SupportsFormat(f ExportFormat) bool {
	if len(t.ExportFormats) == 0 {
		return true
	}
	for _, ef := range t.ExportFormats {
		if ef == f {
			return true
		}
	}
	return false
}

// TemplateFilter narrows ListTemplates. Empty fields match everything.
type TemplateFilter struct {
	Category     TemplateCategory `form:"category" json:"category,omitempty"`
	StandardCode string           `form:"standard_code" json:"standardCode,omitempty"`
	ElementCode  string           `form:"element_code" json:"elementCode,omitempty"`
	TenantID     string           `form:"tenant_id" json:"tenantId,omitempty"`
}

// Matches reports whether t satisfies every set criterion of f. A tenant
// filter also admits system templates, which every tenant can use.
func (f TemplateFilter) Matches(t *Template) bool {
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.StandardCode != "" && t.StandardCode != f.StandardCode {
		return false
	}
	if f.ElementCode != "" && t.ElementCode != f.ElementCode {
		return false
	}
	if f.TenantID != "" && t.TenantID != nil && *t.TenantID != f.TenantID {
		return false
	}
	return true
}

// Clone returns a deep copy of the template.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := *t
	if t.TenantID != nil {
		tenant := *t.TenantID
		out.TenantID = &tenant
	}
	out.Sections = cloneSections(t.Sections)
	out.EvaluationCriteria = cloneStrings(t.EvaluationCriteria)
	if t.ExportFormats != nil {
		out.ExportFormats = append([]ExportFormat(nil), t.ExportFormats...)
	}
	return &out
}

func cloneSections(in []*Section) []*Section {
	if in == nil {
		return nil
	}
	out := make([]*Section, len(in))
	for i, s := range in {
		if s == nil {
			continue
		}
		c := *s
		c.Validation = s.Validation.clone()
		c.Headers = cloneStrings(s.Headers)
		c.Options = cloneStrings(s.Options)
		if s.Fields != nil {
			c.Fields = make([]FormField, len(s.Fields))
			for j, f := range s.Fields {
				f.Validation = f.Validation.clone()
				f.Options = cloneStrings(f.Options)
				c.Fields[j] = f
			}
		}
		c.Subsections = cloneSections(s.Subsections)
		out[i] = &c
	}
	return out
}

func (r *ValidationRules) clone() *ValidationRules {
	if r == nil {
		return nil
	}
	out := *r
	out.MinLength = cloneInt(r.MinLength)
	out.MaxLength = cloneInt(r.MaxLength)
	out.MinItems = cloneInt(r.MinItems)
	out.MaxItems = cloneInt(r.MaxItems)
	out.MinRows = cloneInt(r.MinRows)
	out.MaxRows = cloneInt(r.MaxRows)
	return &out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
