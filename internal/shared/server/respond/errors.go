package respond

import (
	"github.com/gin-gonic/gin"

	"letter-backend/internal/shared/telemetry"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    string      `json:"code"`
	Detail  string      `json:"detail"`
	Details interface{} `json:"details,omitempty"`
}

// Error logs and sends a standardized error response, aborting the chain.
func Error(c *gin.Context, status int, code, detail string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"detail":     detail,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    code,
		Detail:  detail,
		Details: details,
	})
}
