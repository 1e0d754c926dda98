package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"DF-FORMS/internal/models"
	"DF-FORMS/internal/services"
)

type DocumentHandler struct {
	service *services.DocumentService
}

func NewDocumentHandler(service *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

func (h *DocumentHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/documents", h.CreateDocument)
	rg.GET("/documents", h.ListDocuments)
	rg.GET("/documents/:documentId", h.GetDocument)
	rg.PATCH("/documents/:documentId", h.UpdateDocument)
	rg.DELETE("/documents/:documentId", h.DeleteDocument)
	rg.GET("/documents/:documentId/completion", h.GetCompletion)
	rg.POST("/documents/:documentId/validate", h.ValidateDocument)
	rg.POST("/documents/:documentId/submit", h.SubmitDocument)
	rg.POST("/documents/:documentId/approve", h.ApproveDocument)
	rg.POST("/documents/:documentId/reject", h.RejectDocument)
}

type reviewRequest struct {
	ReviewerID string `json:"reviewerId"`
	Notes      string `json:"notes"`
}

// CreateDocument instantiates a template
// POST /api/v1/documents
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var req services.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}

	doc, err := h.service.CreateDocument(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Document created successfully",
		"document": doc,
	})
}

// ListDocuments GET /api/v1/documents?tenant_id=&author_id=&template_id=&status=
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	var filter models.DocumentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + string(filter.Status)})
		return
	}

	docs, err := h.service.ListDocuments(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"total":     len(docs),
	})
}

// GetDocument GET /api/v1/documents/:documentId
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	doc, err := h.service.GetDocument(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// UpdateDocument merges partial section data
// PATCH /api/v1/documents/:documentId
func (h *DocumentHandler) UpdateDocument(c *gin.Context) {
	var req services.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}

	doc, err := h.service.UpdateDocument(c.Request.Context(), c.Param("documentId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// DeleteDocument DELETE /api/v1/documents/:documentId
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id := c.Param("documentId")
	existed, err := h.service.DeleteDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !existed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}

// GetCompletion reports per-section completeness
// GET /api/v1/documents/:documentId/completion
func (h *DocumentHandler) GetCompletion(c *gin.Context) {
	report, err := h.service.GetCompletion(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completion": report})
}

// ValidateDocument POST /api/v1/documents/:documentId/validate
func (h *DocumentHandler) ValidateDocument(c *gin.Context) {
	result, err := h.service.ValidateDocument(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"validation": result})
}

// SubmitDocument POST /api/v1/documents/:documentId/submit
func (h *DocumentHandler) SubmitDocument(c *gin.Context) {
	doc, err := h.service.SubmitDocument(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Document submitted successfully",
		"document": doc,
	})
}

// ApproveDocument POST /api/v1/documents/:documentId/approve
func (h *DocumentHandler) ApproveDocument(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}

	doc, err := h.service.ApproveDocument(c.Request.Context(), c.Param("documentId"), req.ReviewerID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// RejectDocument POST /api/v1/documents/:documentId/reject
func (h *DocumentHandler) RejectDocument(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}

	doc, err := h.service.RejectDocument(c.Request.Context(), c.Param("documentId"), req.ReviewerID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}
