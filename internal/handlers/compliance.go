package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"DF-FORMS/internal/models"
	"DF-FORMS/internal/services"
)

type ComplianceHandler struct {
	service *services.ComplianceService
}

func NewComplianceHandler(service *services.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{service: service}
}

func (h *ComplianceHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/compliance-forms", h.Finalize)
	rg.POST("/compliance-forms/check", h.Check)
	rg.POST("/compliance-forms/preview", h.Preview)
	rg.GET("/compliance-forms/:folio", h.Get)
	rg.GET("/compliance-forms/:folio/export", h.Export)
}

// Check lists the problems that would block finalization
// POST /api/v1/compliance-forms/check
func (h *ComplianceHandler) Check(c *gin.Context) {
	var form models.ComplianceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badJSON(c, err)
		return
	}
	problems := h.service.Check(&form)
	c.JSON(http.StatusOK, gin.H{
		"valid":    len(problems) == 0,
		"problems": problems,
	})
}

// Finalize assigns a folio and stores the form
// POST /api/v1/compliance-forms
func (h *ComplianceHandler) Finalize(c *gin.Context) {
	var form models.ComplianceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badJSON(c, err)
		return
	}

	finalized, err := h.service.Finalize(c.Request.Context(), &form)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Compliance form finalized",
		"form":    finalized,
	})
}

// Get GET /api/v1/compliance-forms/:folio
func (h *ComplianceHandler) Get(c *gin.Context) {
	form, err := h.service.Get(c.Request.Context(), c.Param("folio"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": form})
}

// Export GET /api/v1/compliance-forms/:folio/export?format=pdf
func (h *ComplianceHandler) Export(c *gin.Context) {
	format, opts, err := exportParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Export(c.Request.Context(), c.Param("folio"), format, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	writeExport(c, result, opts.Store)
}

// Preview renders an unsaved form
// POST /api/v1/compliance-forms/preview?format=html
func (h *ComplianceHandler) Preview(c *gin.Context) {
	format, opts, err := exportParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var form models.ComplianceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badJSON(c, err)
		return
	}

	result, err := h.service.Preview(c.Request.Context(), &form, format, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	writeExport(c, result, false)
}
