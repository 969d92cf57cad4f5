package httpkit

import (
	"errors"
	"net/http"

	"parksmart_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

const msgInternal = "internal error"

// ErrorResponse is the body of every non-2xx response. Code is the
// apperr kind when one is known; Fields lists failed validation rules
// keyed by JSON field name.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Error aborts with status and message.
func Error(c *gin.Context, status int, message string, fields map[string]string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Fields: fields})
}

func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Accepted acknowledges work that completes asynchronously.
func Accepted(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusAccepted, payload)
}

// HandleError writes err and reports whether there was one. Classified
// errors keep their message; anything else becomes a bare 500.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) || domainErr.Kind == apperr.KindUnknown {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
		return true
	}

	c.AbortWithStatusJSON(domainErr.Kind.Status(), ErrorResponse{
		Error: domainErr.Message,
		Code:  string(domainErr.Kind),
	})
	return true
}
