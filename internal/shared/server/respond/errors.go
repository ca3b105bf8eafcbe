package respond

import (
	"github.com/gin-gonic/gin"

	"ot-backend/internal/shared/telemetry"
)

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Error logs the failure with its cause and aborts with {ok:false, error:message}.
// err is never sent to the caller.
func Error(c *gin.Context, status int, code, message string, err error) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if err != nil {
		fields["error"] = err
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		OK:    false,
		Error: message,
	})
}
