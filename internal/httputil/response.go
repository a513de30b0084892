// Package httputil provides shared HTTP response helpers.
package httputil

import "github.com/gin-gonic/gin"

// RespondError writes a standardized JSON error response and aborts the request.
func RespondError(c *gin.Context, status int, code, message string) {
	RespondErrorDetails(c, status, code, message, nil)
}

// RespondErrorDetails writes the error envelope with extra top-level fields
// (for example the per-field or per-row failures of a rejected payload).
// details cannot override code, message or request_id.
func RespondErrorDetails(c *gin.Context, status int, code, message string, details map[string]any) {
	resp := make(map[string]any, len(details)+3)
	for k, v := range details {
		resp[k] = v
	}

	resp["code"] = code
	resp["message"] = message

	if rid, exists := c.Get("request_id"); exists {
		if s, ok := rid.(string); ok && s != "" {
			resp["request_id"] = s
		}
	}

	c.AbortWithStatusJSON(status, resp)
}
