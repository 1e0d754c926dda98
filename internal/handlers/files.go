package handlers

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"DF-FORMS/internal/storage"
)

// FileHandler serves locally stored artifacts behind signed URLs.
type FileHandler struct {
	storage *storage.LocalStorageClient
}

func NewFileHandler(client *storage.LocalStorageClient) *FileHandler {
	return &FileHandler{storage: client}
}

// ServeFile GET /files/*filepath?expires=&signature=
func (h *FileHandler) ServeFile(c *gin.Context) {
	objectName := strings.TrimPrefix(c.Param("filepath"), "/")
	if objectName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file path required"})
		return
	}

	expiresStr := c.Query("expires")
	signature := c.Query("signature")
	if signature == "" || expiresStr == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "signed URL required"})
		return
	}
	expiresAt, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expires parameter"})
		return
	}
	if !h.storage.VerifySignedURL(objectName, expiresAt, signature) {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired signature"})
		return
	}

	reader, err := h.storage.ReadFile(c.Request.Context(), objectName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(objectName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(path.Base(objectName)))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		logrus.WithFields(logrus.Fields{"object": objectName, "error": err}).Warn("failed to stream file")
	}
}
