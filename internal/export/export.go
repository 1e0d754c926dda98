// Package export renders documents and compliance forms to HTML, PDF and
// DOCX. Rendering never validates and never mutates its inputs: empty
// required sections are replaced by a placeholder so partial documents can
// be previewed.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DF-FORMS/internal/models"
)

// ErrUnsupportedFormat is returned for unknown formats and for formats the
// template does not allow.
var ErrUnsupportedFormat = errors.New("unsupported export format")

type Options struct {
	DefaultPageSize    models.PageSize
	DefaultOrientation models.PageOrientation
	Markdown           bool   // render textarea content as Markdown for every export
	VerifyURL          string // base URL encoded in compliance QR codes
	Clock              func() time.Time
}

// Pipeline turns (template, document) pairs into export artifacts.
type Pipeline struct {
	pdf  PDFBackend
	opts Options
}

// NewPipeline builds a pipeline. pdf may be nil, in which case PDF exports
// fail with ErrPDFUnavailable.
func NewPipeline(pdf PDFBackend, opts Options) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Pipeline{pdf: pdf, opts: opts}
}

// NormalizeOptions fills unset layout options with the pipeline defaults.
func (p *Pipeline) NormalizeOptions(opts models.ExportOptions) models.ExportOptions {
	opts = opts.Normalize(p.opts.DefaultPageSize, p.opts.DefaultOrientation)
	if p.opts.Markdown {
		opts.Markdown = true
	}
	return opts
}

// Render produces doc in format.
func (p *Pipeline) Render(ctx context.Context, tmpl *models.Template, doc *models.Document, format models.ExportFormat, opts models.ExportOptions) (*models.ExportResult, error) {
	if !format.Valid() || !tmpl.SupportsFormat(format) {
		return nil, fmt.Errorf("%w: %q for template %s", ErrUnsupportedFormat, format, tmpl.ID)
	}
	opts = p.NormalizeOptions(opts)

	builder := viewBuilder{}
	if opts.Markdown && format != models.FormatDOCX {
		builder.markdown = markdownToHTML
	}
	view, incomplete, err := builder.document(tmpl, doc, opts, p.opts.Clock())
	if err != nil {
		return nil, err
	}

	var content []byte
	switch format {
	case models.FormatHTML:
		content, err = renderHTML("document", view)
	case models.FormatPDF:
		content, err = p.toPDF(ctx, "document", view, opts)
	case models.FormatDOCX:
		content, err = documentDOCX(view)
	}
	if err != nil {
		return nil, err
	}

	return &models.ExportResult{
		Content:  content,
		Filename: Filename(doc.Title, doc.Version, format),
		MimeType: format.MimeType(),
		Note:     partialNote(incomplete),
	}, nil
}

// RenderCompliance produces the jurisdiction layout of a compliance form.
func (p *Pipeline) RenderCompliance(ctx context.Context, form *models.ComplianceForm, format models.ExportFormat, opts models.ExportOptions) (*models.ExportResult, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	opts = p.NormalizeOptions(opts)

	view, err := buildComplianceView(form, opts, p.opts.VerifyURL)
	if err != nil {
		return nil, err
	}

	var content []byte
	switch format {
	case models.FormatHTML:
		content, err = renderHTML("compliance", view)
	case models.FormatPDF:
		content, err = p.toPDF(ctx, "compliance", view, opts)
	case models.FormatDOCX:
		content, err = complianceDOCX(view)
	}
	if err != nil {
		return nil, err
	}

	name := form.Folio
	if name == "" {
		name = "dc3-" + form.Trainee.Name
	}
	result := &models.ExportResult{
		Content:  content,
		Filename: fmt.Sprintf("%s.%s", Slug(name), format),
		MimeType: format.MimeType(),
	}
	if !form.Finalized() {
		result.Note = "draft form — no folio assigned"
	}
	return result, nil
}

func (p *Pipeline) toPDF(ctx context.Context, page string, view any, opts models.ExportOptions) ([]byte, error) {
	if p.pdf == nil {
		return nil, ErrPDFUnavailable
	}
	html, err := renderHTML(page, view)
	if err != nil {
		return nil, err
	}
	out, err := p.pdf.ConvertHTML(ctx, html, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to pdf: %w", err)
	}
	return out, nil
}
