package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodySize caps request bodies at maxBytes. A declared Content-Length over
// the cap is refused with the input_limit envelope before the handler runs;
// undeclared or chunked bodies are cut off by http.MaxBytesReader while the
// handler reads them.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			respondErrorDetails(c, http.StatusRequestEntityTooLarge, "input_limit", "request body too large",
				map[string]any{"limit": "body_bytes", "max": maxBytes})

			return
		}

		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
