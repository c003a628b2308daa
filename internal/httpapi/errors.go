package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"RegulatoryScanner/internal/domain"
)

// statusFor maps the domain error taxonomy onto HTTP codes.
func statusFor(err error) int {
	var classification *domain.ClassificationError
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrRunInProgress):
		return http.StatusConflict
	case errors.As(err, &classification):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}
