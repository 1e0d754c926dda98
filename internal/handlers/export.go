package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"DF-FORMS/internal/models"
	"DF-FORMS/internal/services"
)

type ExportHandler struct {
	service *services.ExportService
}

func NewExportHandler(service *services.ExportService) *ExportHandler {
	return &ExportHandler{service: service}
}

func (h *ExportHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/documents/:documentId/export", h.ExportDocument)
}

// exportParams reads format and layout options from the query string. Header
// and footer are on unless explicitly disabled.
func exportParams(c *gin.Context) (models.ExportFormat, models.ExportOptions, error) {
	opts := models.ExportOptions{IncludeHeader: true, IncludeFooter: true}
	if err := c.ShouldBindQuery(&opts); err != nil {
		return "", opts, err
	}
	format := models.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(models.FormatPDF))))
	return format, opts, nil
}

// ExportDocument renders a document. The artifact is streamed unless
// store=true, in which case a JSON body with a signed download URL is returned.
// GET /api/v1/documents/:documentId/export?format=pdf&page_size=A4&orientation=landscape
func (h *ExportHandler) ExportDocument(c *gin.Context) {
	format, opts, err := exportParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.ExportDocument(c.Request.Context(), c.Param("documentId"), format, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	writeExport(c, result, opts.Store)
}

func writeExport(c *gin.Context, result *models.ExportResult, stored bool) {
	if stored {
		c.JSON(http.StatusOK, gin.H{"export": result})
		return
	}

	if result.Note != "" {
		c.Header("X-Export-Note", result.Note)
	}
	disposition := "attachment"
	if strings.HasPrefix(result.MimeType, "text/html") {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, result.Filename))
	c.Data(http.StatusOK, result.MimeType, result.Content)
}
