package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"strings"

	"DF-FORMS/internal/models"
)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

	packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

	documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

	stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Arial" w:hAnsi="Arial"/><w:sz w:val="22"/></w:rPr></w:rPrDefault></w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:rPr><w:b/><w:sz w:val="32"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:before="240"/></w:pPr><w:rPr><w:b/><w:sz w:val="26"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:rPr><w:b/><w:sz w:val="22"/></w:rPr></w:style>
<w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/><w:tblPr><w:tblBorders>
<w:top w:val="single" w:sz="4"/><w:left w:val="single" w:sz="4"/><w:bottom w:val="single" w:sz="4"/><w:right w:val="single" w:sz="4"/><w:insideH w:val="single" w:sz="4"/><w:insideV w:val="single" w:sz="4"/>
</w:tblBorders></w:tblPr></w:style>
</w:styles>`
)

// pageTwips returns width and height in twentieths of a point.
func pageTwips(opts models.ExportOptions) (int, int) {
	w, h := 12240, 15840
	switch opts.PageSize {
	case models.PageA4:
		w, h = 11906, 16838
	case models.PageLegal:
		w, h = 12240, 20160
	}
	if opts.Landscape() {
		w, h = h, w
	}
	return w, h
}

func escapeXML(s string) string {
	return html.EscapeString(s)
}

// docxBody accumulates WordprocessingML block elements.
type docxBody struct {
	strings.Builder
}

func (b *docxBody) paragraph(style, text string, italic bool) {
	b.WriteString("<w:p>")
	if style != "" {
		fmt.Fprintf(b, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, style)
	}
	for i, line := range strings.Split(text, "\n") {
		b.WriteString("<w:r>")
		if italic {
			b.WriteString("<w:rPr><w:i/></w:rPr>")
		}
		if i > 0 {
			b.WriteString("<w:br/>")
		}
		fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t></w:r>`, escapeXML(line))
	}
	b.WriteString("</w:p>")
}

func (b *docxBody) table(headers []string, rows [][]string) {
	b.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="5000" w:type="pct"/></w:tblPr>`)
	writeRow := func(cells []string, bold bool) {
		b.WriteString("<w:tr>")
		for _, c := range cells {
			b.WriteString("<w:tc><w:p><w:r>")
			if bold {
				b.WriteString("<w:rPr><w:b/></w:rPr>")
			}
			fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t></w:r></w:p></w:tc>`, escapeXML(c))
		}
		b.WriteString("</w:tr>")
	}
	if len(headers) > 0 {
		writeRow(headers, true)
	}
	for _, r := range rows {
		if len(r) == 0 {
			r = []string{""}
		}
		writeRow(r, false)
	}
	b.WriteString("</w:tbl>")
}

func (b *docxBody) section(sv *sectionView) {
	style := "Heading1"
	if sv.Depth > 0 {
		style = "Heading2"
	}
	b.paragraph(style, sv.Title, false)

	switch {
	case sv.Pending != "":
		b.paragraph("", sv.Pending, true)
	case sv.Empty:
	case sv.Type == models.SectionCheckbox:
		mark := "☐"
		if sv.Checked {
			mark = "☑"
		}
		b.paragraph("", mark, false)
	case sv.Type == models.SectionSignature:
		b.paragraph("", sv.Text, false)
		b.paragraph("", "______________________________", false)
	case sv.IsText():
		b.paragraph("", sv.Text, false)
	case sv.Type == models.SectionList:
		for _, it := range sv.Items {
			b.paragraph("", "• "+it, false)
		}
	case len(sv.Rows) > 0:
		b.table(sv.Headers, sv.Rows)
		b.paragraph("", "", false)
	case len(sv.Fields) > 0:
		for _, f := range sv.Fields {
			b.paragraph("", f.Label+": "+f.Value, false)
		}
	}
	for _, child := range sv.Children {
		b.section(child)
	}
}

// writeDOCX packages body into a minimal .docx with the page setup of opts.
func writeDOCX(body string, opts models.ExportOptions) ([]byte, error) {
	w, h := pageTwips(opts)
	orient := ""
	if opts.Landscape() {
		orient = ` w:orient="landscape"`
	}
	document := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s<w:sectPr><w:pgSz w:w="%d" w:h="%d"%s/><w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="709" w:footer="709" w:gutter="0"/></w:sectPr></w:body></w:document>`,
		body, w, h, orient)

	parts := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/document.xml", document},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", p.name, err)
		}
		if _, err := f.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize docx: %w", err)
	}
	return buf.Bytes(), nil
}

// documentDOCX lays out a generic document view.
func documentDOCX(view *documentView) ([]byte, error) {
	var b docxBody
	if view.Options.IncludeHeader {
		header := view.TemplateName
		if view.StandardCode != "" {
			header += " · " + view.StandardCode
		}
		b.paragraph("", header, true)
	}
	b.paragraph("Title", view.Title, false)
	for _, sv := range view.Sections {
		b.section(sv)
	}
	if len(view.Criteria) > 0 {
		b.paragraph("Heading1", "Criterios de evaluación", false)
		for _, c := range view.Criteria {
			b.paragraph("", "• "+c, false)
		}
	}
	if view.Options.IncludeFooter {
		b.paragraph("", fmt.Sprintf("Versión %d · Estado: %s · Avance: %d%% · Generado: %s",
			view.Version, view.Status, view.Completion, view.GeneratedAt), true)
	}
	return writeDOCX(b.String(), view.Options)
}
