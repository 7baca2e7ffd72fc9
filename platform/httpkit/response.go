// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"net/http"

	"property_portal_backend/platform/apperr"
	"property_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// HandleError maps err onto an HTTP response via apperr.From. Errors that
// carry no kind are reported as 500 with a generic message. Server-side
// failures are logged when log is non-nil.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error, log ...*logger.Logger) bool {
	if err == nil {
		return false
	}

	appErr := apperr.From(err)
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError && len(log) > 0 && log[0] != nil {
		log[0].WithContext(c.Request.Context()).
			HTTPError(c.Request.Method, c.Request.URL.Path, status, err, c.ClientIP())
	}

	c.JSON(status, ErrorResponse{Error: appErr.Message, Details: appErr.Details})
	return true
}
