package export

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DF-FORMS/internal/models"
)

type fakePDF struct {
	html []byte
	opts models.ExportOptions
}

func (f *fakePDF) ConvertHTML(_ context.Context, html []byte, opts models.ExportOptions) ([]byte, error) {
	f.html = html
	f.opts = opts
	return []byte("%PDF-1.7 fake"), nil
}

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func testPipeline(pdf PDFBackend) *Pipeline {
	return NewPipeline(pdf, Options{
		DefaultPageSize:    models.PageLetter,
		DefaultOrientation: models.OrientationPortrait,
		VerifyURL:          "https://forms.example.com/verify/",
		Clock:              func() time.Time { return fixedNow },
	})
}

func sampleTemplate() *models.Template {
	return &models.Template{
		ID:           "tpl-1",
		Name:         "Course design",
		StandardCode: "EC0217",
		Category:     models.CategoryComplianceDeliverable,
		Sections: []*models.Section{
			{ID: "goal", Title: "Goal", Type: models.SectionText, Required: true},
			{ID: "notes", Title: "Notes", Type: models.SectionTextarea},
			{ID: "topics", Title: "Topics", Type: models.SectionList, Required: true},
			{ID: "schedule", Title: "Schedule", Type: models.SectionTable, Headers: []string{"Topic", "Hours"}},
		},
	}
}

func sampleDocument(data map[string]any) *models.Document {
	return &models.Document{
		ID:         "doc-1",
		TemplateID: "tpl-1",
		Title:      "Diseño de curso: Excel",
		Status:     models.StatusInProgress,
		Version:    3,
		Data:       data,
	}
}

func TestRender_PendingPlaceholders(t *testing.T) {
	p := testPipeline(nil)
	doc := sampleDocument(map[string]any{"goal": "", "notes": "", "topics": []any{}, "schedule": []any{}})

	res, err := p.Render(context.Background(), sampleTemplate(), doc, models.FormatHTML, models.ExportOptions{})
	require.NoError(t, err)

	html := res.Text()
	assert.Contains(t, html, "[Pending: Goal]")
	assert.Contains(t, html, "[Pending: Topics]")
	assert.NotContains(t, html, "[Pending: Notes]", "optional sections get no placeholder")
	assert.Equal(t, "partial document — 2 sections incomplete", res.Note)
	assert.Equal(t, "diseno-de-curso-excel-v3.html", res.Filename)
	assert.Equal(t, "text/html; charset=utf-8", res.MimeType)
}

func TestRender_CompleteDocumentHasNoNote(t *testing.T) {
	p := testPipeline(nil)
	doc := sampleDocument(map[string]any{
		"goal":     "Teach spreadsheets",
		"topics":   []any{"Formulas", "Charts"},
		"schedule": []any{[]any{"Formulas", "2"}, map[string]any{"Topic": "Charts", "Hours": 3.0}},
	})

	res, err := p.Render(context.Background(), sampleTemplate(), doc, models.FormatHTML, models.ExportOptions{})
	require.NoError(t, err)

	assert.Empty(t, res.Note)
	html := res.Text()
	assert.Contains(t, html, "<li>Formulas</li>")
	assert.Contains(t, html, "<th>Hours</th>")
	assert.Contains(t, html, "<td>Charts</td><td>3</td>")
	assert.Contains(t, html, "@page { size: letter; margin: 2cm; }")
}

func TestRender_EscapesUserContent(t *testing.T) {
	p := testPipeline(nil)
	doc := sampleDocument(map[string]any{"goal": "<script>alert(1)</script>", "topics": []any{"a"}})

	res, err := p.Render(context.Background(), sampleTemplate(), doc, models.FormatHTML, models.ExportOptions{})
	require.NoError(t, err)

	assert.NotContains(t, res.Text(), "<script>alert(1)</script>")
	assert.Contains(t, res.Text(), "&lt;script&gt;")
}

func TestRender_Markdown(t *testing.T) {
	p := testPipeline(nil)
	doc := sampleDocument(map[string]any{
		"goal":   "Teach spreadsheets",
		"topics": []any{"a"},
		"notes":  "**bold** move\n\n<b>raw</b>",
	})

	plain, err := p.Render(context.Background(), sampleTemplate(), doc, models.FormatHTML, models.ExportOptions{})
	require.NoError(t, err)
	assert.Contains(t, plain.Text(), "**bold** move")

	rich, err := p.Render(context.Background(), sampleTemplate(), doc, models.FormatHTML, models.ExportOptions{Markdown: true})
	require.NoError(t, err)
	assert.Contains(t, rich.Text(), "<strong>bold</strong>")
	assert.NotContains(t, rich.Text(), "<b>raw</b>", "raw html in markdown is dropped")
}

func TestRender_StructuredShowsNestedPlaceholders(t *testing.T) {
	tmpl := &models.Template{
		ID: "tpl-s",
		Sections: []*models.Section{{
			ID: "plan", Title: "Plan", Type: models.SectionStructured, Required: true,
			Subsections: []*models.Section{
				{ID: "goal", Title: "Plan goal", Type: models.SectionText, Required: true},
				{ID: "scope", Title: "Plan scope", Type: models.SectionText},
			},
		}},
	}
	doc := sampleDocument(map[string]any{"plan": map[string]any{}})

	res, err := testPipeline(nil).Render(context.Background(), tmpl, doc, models.FormatHTML, models.ExportOptions{})
	require.NoError(t, err)

	assert.Contains(t, res.Text(), "[Pending: Plan goal]")
	assert.Contains(t, res.Text(), "<h3>Plan scope</h3>")
	assert.Equal(t, "partial document — 1 sections incomplete", res.Note)
}

func TestRender_DOCX(t *testing.T) {
	doc := sampleDocument(map[string]any{"goal": "Tom & Jerry", "topics": []any{}})
	opts := models.ExportOptions{PageSize: models.PageA4, Orientation: models.OrientationLandscape}

	res, err := testPipeline(nil).Render(context.Background(), sampleTemplate(), doc, models.FormatDOCX, opts)
	require.NoError(t, err)
	assert.Equal(t, "diseno-de-curso-excel-v3.docx", res.Filename)

	zr, err := zip.NewReader(bytes.NewReader(res.Content), int64(len(res.Content)))
	require.NoError(t, err)

	var names []string
	var body string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			require.NoError(t, err)
			raw, err := io.ReadAll(rc)
			require.NoError(t, err)
			rc.Close()
			body = string(raw)
		}
	}
	assert.Contains(t, names, "[Content_Types].xml")
	assert.Contains(t, body, `<w:pgSz w:w="16838" w:h="11906" w:orient="landscape"/>`)
	assert.Contains(t, body, "Tom &amp; Jerry")
	assert.Contains(t, body, "[Pending: Topics]")
}

func TestRender_PDF(t *testing.T) {
	backend := &fakePDF{}
	doc := sampleDocument(map[string]any{"goal": "Teach spreadsheets", "topics": []any{"a"}})

	res, err := testPipeline(backend).Render(context.Background(), sampleTemplate(), doc, models.FormatPDF, models.ExportOptions{Orientation: models.OrientationLandscape})
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", res.MimeType)
	assert.True(t, strings.HasPrefix(string(res.Content), "%PDF"))
	assert.Contains(t, string(backend.html), "Teach spreadsheets")
	assert.Equal(t, models.PageLetter, backend.opts.PageSize)
	assert.True(t, backend.opts.Landscape())
}

func TestRender_PDFWithoutBackend(t *testing.T) {
	doc := sampleDocument(map[string]any{})
	_, err := testPipeline(nil).Render(context.Background(), sampleTemplate(), doc, models.FormatPDF, models.ExportOptions{})
	assert.ErrorIs(t, err, ErrPDFUnavailable)
}

func TestRender_UnsupportedFormat(t *testing.T) {
	tmpl := sampleTemplate()
	tmpl.ExportFormats = []models.ExportFormat{models.FormatHTML}
	doc := sampleDocument(map[string]any{})

	_, err := testPipeline(&fakePDF{}).Render(context.Background(), tmpl, doc, models.FormatPDF, models.ExportOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = testPipeline(nil).Render(context.Background(), sampleTemplate(), doc, models.ExportFormat("txt"), models.ExportOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRender_DoesNotMutateDocument(t *testing.T) {
	doc := sampleDocument(map[string]any{"goal": "", "topics": []any{"x"}})
	before := doc.Clone()

	_, err := testPipeline(nil).Render(context.Background(), sampleTemplate(), doc, models.FormatHTML, models.ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, before, doc)
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Diseño de curso":         "diseno-de-curso",
		"  Plan -- Anual 2025!  ": "plan-anual-2025",
		"Évaluation":              "evaluation",
		"":                        "document",
		"###":                     "document",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), in)
	}
	assert.Equal(t, "document-v1.pdf", Filename("", 1, models.FormatPDF))
}

func sampleComplianceForm() *models.ComplianceForm {
	issued := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	return &models.ComplianceForm{
		Folio:    "DC3-2025-000042",
		IssuedAt: &issued,
		Employer: models.Employer{
			LegalName: "Capacitación Integral SA de CV", TaxID: "CIN010101AB1",
			LegalRepresentative: "Laura Méndez", Address: "Av. Reforma 1, CDMX", Phone: "5555555555",
		},
		Training: models.Training{
			Name: "Excel avanzado", DurationHours: 12.5, StartDate: "2025-01-10", EndDate: "2025-01-20",
			Modality: models.ModalityHybrid, Objective: "Automatizar reportes", Topics: []string{"Tablas", "Macros"},
		},
		Instructor: models.Instructor{Name: "Pedro Ruiz", LaborRegistration: "RUPP-1234"},
		Trainee:    models.Trainee{Name: "Ana Torres", PopulationID: "TOAA900101MDFRRN09"},
		Outcome:    models.Outcome{Score: 95, Passed: true},
	}
}

func TestRenderCompliance_HTML(t *testing.T) {
	res, err := testPipeline(nil).RenderCompliance(context.Background(), sampleComplianceForm(), models.FormatHTML, models.ExportOptions{})
	require.NoError(t, err)

	html := res.Text()
	assert.Contains(t, html, "DC3-2025-000042")
	assert.Contains(t, html, "Fecha de expedición: 2025-02-01")
	assert.Contains(t, html, "Tablas; Macros")
	assert.Contains(t, html, "12.5")
	assert.Contains(t, html, "Mixta")
	assert.Contains(t, html, `src="data:image/png;base64,`)
	assert.Contains(t, html, "https://forms.example.com/verify/DC3-2025-000042")
	assert.Equal(t, "dc3-2025-000042.html", res.Filename)
	assert.Empty(t, res.Note)
}

func TestRenderCompliance_DraftAndDOCX(t *testing.T) {
	form := sampleComplianceForm()
	form.Folio = ""
	form.IssuedAt = nil

	res, err := testPipeline(nil).RenderCompliance(context.Background(), form, models.FormatDOCX, models.ExportOptions{})
	require.NoError(t, err)

	assert.Equal(t, "dc3-ana-torres.docx", res.Filename)
	assert.NotEmpty(t, res.Note)

	zr, err := zip.NewReader(bytes.NewReader(res.Content), int64(len(res.Content)))
	require.NoError(t, err)
	assert.Len(t, zr.File, 5)
}
