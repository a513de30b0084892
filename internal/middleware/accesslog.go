package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AccessLog writes one structured line per request once the handler chain
// has finished. 5xx responses log at error level.
func AccessLog(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"client":      c.ClientIP(),
			"bytes":       c.Writer.Size(),
		})

		if id := c.GetString(RequestIDKey); id != "" {
			entry = entry.WithField("request_id", id)
		}

		if id, ok := IdentityFrom(c); ok {
			entry = entry.WithField("user_id", id.UserID)
		}

		if status >= 500 {
			entry.Error("request")
			return
		}

		entry.Info("request")
	}
}
