package export

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"DF-FORMS/internal/models"
)

// pendingText is shown in place of an empty required section.
func pendingText(title string) string {
	return fmt.Sprintf("[Pending: %s]", title)
}

// documentView is the format-neutral shape every renderer walks.
type documentView struct {
	Title        string
	TemplateName string
	StandardCode string
	ElementCode  string
	Status       string
	Version      int
	Completion   int
	GeneratedAt  string
	Criteria     []string
	Sections     []*sectionView
	Options      models.ExportOptions
	PageCSS      template.CSS
}

type fieldView struct {
	Label string
	Value string
}

type sectionView struct {
	ID       string
	Title    string
	Type     models.SectionType
	Depth    int
	Pending  string // placeholder for empty required sections
	Empty    bool
	Text     string
	HTML     template.HTML // markdown-rendered textarea content
	Items    []string
	Headers  []string
	Rows     [][]string
	Fields   []fieldView
	Checked  bool
	Children []*sectionView
}

// IsText reports whether the section renders as running text.
func (v *sectionView) IsText() bool {
	switch v.Type {
	case models.SectionText, models.SectionTextarea, models.SectionDate, models.SectionRadio, models.SectionSelect:
		return true
	}
	return false
}

type viewBuilder struct {
	markdown func(string) (template.HTML, error)
}

func (b *viewBuilder) document(tmpl *models.Template, doc *models.Document, opts models.ExportOptions, now time.Time) (*documentView, int, error) {
	view := &documentView{
		Title:        doc.Title,
		TemplateName: tmpl.Name,
		StandardCode: tmpl.StandardCode,
		ElementCode:  tmpl.ElementCode,
		Status:       string(doc.Status),
		Version:      doc.Version,
		Completion:   doc.CompletionPercentage,
		GeneratedAt:  now.Format("2006-01-02 15:04 MST"),
		Criteria:     tmpl.EvaluationCriteria,
		Options:      opts,
		PageCSS:      pageCSS(opts),
	}

	incomplete := 0
	for _, s := range tmpl.Sections {
		sv, err := b.section(s, doc.Data[s.ID], 0)
		if err != nil {
			return nil, 0, err
		}
		if sv.Pending != "" {
			incomplete++
		}
		view.Sections = append(view.Sections, sv)
	}
	return view, incomplete, nil
}

func (b *viewBuilder) section(s *models.Section, value any, depth int) (*sectionView, error) {
	sv := &sectionView{
		ID:      s.ID,
		Title:   s.Title,
		Type:    s.Type,
		Depth:   depth,
		Headers: s.Headers,
	}
	if depth > maxRenderDepth {
		return sv, nil
	}

	// Structured sections always render their children so nested
	// placeholders stay visible.
	if s.Type != models.SectionStructured && models.IsEmptyValue(value) {
		sv.Empty = true
		if s.Required {
			sv.Pending = pendingText(s.Title)
		}
		return sv, nil
	}

	switch s.Type {
	case models.SectionText, models.SectionDate, models.SectionRadio, models.SectionSelect, models.SectionSignature:
		sv.Text = stringify(value)
	case models.SectionTextarea:
		sv.Text = stringify(value)
		if b.markdown != nil {
			out, err := b.markdown(sv.Text)
			if err != nil {
				return nil, fmt.Errorf("failed to render section %s: %w", s.ID, err)
			}
			sv.HTML = out
		}
	case models.SectionList:
		items, _ := models.AsSlice(value)
		for _, it := range items {
			sv.Items = append(sv.Items, stringify(it))
		}
	case models.SectionTable, models.SectionMatrix:
		rows, _ := models.AsSlice(value)
		for _, row := range rows {
			sv.Rows = append(sv.Rows, rowCells(row, s.Headers))
		}
	case models.SectionFormFields:
		obj, _ := models.AsMap(value)
		for _, f := range s.Fields {
			v := stringify(obj[f.ID])
			if strings.TrimSpace(v) == "" && f.Required {
				v = pendingText(f.Label)
			}
			sv.Fields = append(sv.Fields, fieldView{Label: f.Label, Value: v})
		}
	case models.SectionCheckbox:
		sv.Checked, _ = value.(bool)
	case models.SectionStructured:
		obj, _ := models.AsMap(value)
		empty := true
		for _, sub := range s.Subsections {
			child, err := b.section(sub, obj[sub.ID], depth+1)
			if err != nil {
				return nil, err
			}
			if !child.Empty {
				empty = false
			}
			sv.Children = append(sv.Children, child)
		}
		if empty && s.Required {
			sv.Empty = true
			sv.Pending = pendingText(s.Title)
		}
	}
	return sv, nil
}

// maxRenderDepth bounds recursion for templates that bypassed registration.
const maxRenderDepth = 64

// rowCells flattens a table row. Object rows are read in header order.
func rowCells(row any, headers []string) []string {
	if cells, ok := models.AsSlice(row); ok {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = stringify(c)
		}
		return out
	}
	if obj, ok := models.AsMap(row); ok {
		out := make([]string, len(headers))
		for i, h := range headers {
			out[i] = stringify(obj[h])
		}
		return out
	}
	return []string{stringify(row)}
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "Sí"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	}
	if items, ok := models.AsSlice(v); ok {
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = stringify(it)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

// pageCSS emits the @page rule for the requested paper.
func pageCSS(opts models.ExportOptions) template.CSS {
	size := strings.ToUpper(string(opts.PageSize))
	if opts.PageSize == models.PageLetter || opts.PageSize == models.PageLegal {
		size = strings.ToLower(string(opts.PageSize))
	}
	if opts.Landscape() {
		size += " landscape"
	}
	return template.CSS(fmt.Sprintf("@page { size: %s; margin: 2cm; }", size))
}

// partialNote returns the note attached to documents with incomplete
// required sections.
func partialNote(incomplete int) string {
	if incomplete == 0 {
		return ""
	}
	return fmt.Sprintf("partial document — %d sections incomplete", incomplete)
}
