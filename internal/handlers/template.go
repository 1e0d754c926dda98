package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"DF-FORMS/internal/models"
	"DF-FORMS/internal/services"
)

type TemplateHandler struct {
	service *services.TemplateService
}

func NewTemplateHandler(service *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

func (h *TemplateHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/templates", h.RegisterTemplate)
	rg.GET("/templates", h.ListTemplates)
	rg.GET("/templates/:templateId", h.GetTemplate)
}

// RegisterTemplate validates and stores a template, replacing one with the same id
// POST /api/v1/templates
func (h *TemplateHandler) RegisterTemplate(c *gin.Context) {
	var tmpl models.Template
	if err := c.ShouldBindJSON(&tmpl); err != nil {
		badJSON(c, err)
		return
	}

	saved, err := h.service.RegisterTemplate(c.Request.Context(), &tmpl)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Template registered successfully",
		"template": saved,
	})
}

// ListTemplates lists templates in registration order
// GET /api/v1/templates?category=&standard_code=&element_code=&tenant_id=
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var filter models.TemplateFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	templates, err := h.service.ListTemplates(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"templates": templates,
		"total":     len(templates),
	})
}

// GetTemplate GET /api/v1/templates/:templateId
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	tmpl, err := h.service.GetTemplate(c.Request.Context(), c.Param("templateId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": tmpl})
}
