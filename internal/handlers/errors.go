package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"DF-FORMS/internal/export"
	"DF-FORMS/internal/services"
)

// respondError maps service errors onto HTTP statuses. Unexpected errors are
// logged and hidden from the client.
func respondError(c *gin.Context, err error) {
	var failed *services.ValidationFailedError
	switch {
	case errors.As(err, &failed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      err.Error(),
			"validation": failed.Result,
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, export.ErrPDFUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"error":  err,
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badJSON(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON: " + err.Error()})
}
