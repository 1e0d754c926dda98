package models

// ExportFormat is an output encoding supported by the export pipeline
type ExportFormat string

const (
	FormatHTML ExportFormat = "html"
	FormatPDF  ExportFormat = "pdf"
	FormatDOCX ExportFormat = "docx"
)

// Valid reports whether f is a supported encoding.
func (f ExportFormat) Valid() bool {
	switch f {
	case FormatHTML, FormatPDF, FormatDOCX:
		return true
	}
	return false
}

// MimeType returns the content type of f.
func (f ExportFormat) MimeType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// PageSize represents the paper size of rendered output
type PageSize string

const (
	PageA4     PageSize = "A4"
	PageLetter PageSize = "Letter"
	PageLegal  PageSize = "Legal"
)

// Valid reports whether p is a known paper size.
func (p PageSize) Valid() bool {
	return p == PageA4 || p == PageLetter || p == PageLegal
}

// PageOrientation represents the document page orientation
type PageOrientation string

const (
	OrientationPortrait  PageOrientation = "portrait"
	OrientationLandscape PageOrientation = "landscape"
)

// ExportOptions controls layout of a rendered document.
type ExportOptions struct {
	PageSize      PageSize        `json:"pageSize,omitempty" form:"page_size"`
	Orientation   PageOrientation `json:"orientation,omitempty" form:"orientation"`
	IncludeHeader bool            `json:"includeHeader" form:"include_header"`
	IncludeFooter bool            `json:"includeFooter" form:"include_footer"`
	IncludeLogo   bool            `json:"includeLogo" form:"include_logo"`
	LogoURL       string          `json:"logoUrl,omitempty" form:"logo_url"`
	Markdown      bool            `json:"markdown" form:"markdown"` // Render textarea content as Markdown (HTML/PDF only)
	Store         bool            `json:"store" form:"store"`       // Upload the artifact and return a download URL
}

// Normalize fills unset layout options with defaults.
func (o ExportOptions) Normalize(defaultSize PageSize, defaultOrientation PageOrientation) ExportOptions {
	if !o.PageSize.Valid() {
		o.PageSize = defaultSize
		if !o.PageSize.Valid() {
			o.PageSize = PageLetter
		}
	}
	if o.Orientation != OrientationPortrait && o.Orientation != OrientationLandscape {
		o.Orientation = defaultOrientation
		if o.Orientation != OrientationLandscape {
			o.Orientation = OrientationPortrait
		}
	}
	return o
}

// Landscape reports whether pages are rendered wide.
func (o ExportOptions) Landscape() bool {
	return o.Orientation == OrientationLandscape
}

// ExportResult is the rendered artifact returned to callers.
type ExportResult struct {
	Content     []byte `json:"-"`
	Filename    string `json:"filename"`
	MimeType    string `json:"mimeType"`
	Note        string `json:"note,omitempty"`
	StoragePath string `json:"storagePath,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// Text returns the content as a string; meaningful for HTML results.
func (r *ExportResult) Text() string {
	return string(r.Content)
}
