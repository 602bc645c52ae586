package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"speedr-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if id := c.GetString("analysisId"); id != "" {
		fields["analysis_id"] = id
	}
	if id := c.GetString("artifactId"); id != "" {
		fields["artifact_id"] = id
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Internal logs cause and sends an opaque 500 so internals never leak.
func Internal(c *gin.Context, message string, cause error) {
	if cause != nil {
		telemetry.Error("http.internal_cause", map[string]any{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("requestId"),
			"error":      cause,
		})
	}
	Error(c, http.StatusInternalServerError, "internal_error", message, nil)
}
