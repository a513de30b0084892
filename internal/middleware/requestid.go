package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "request_id"

	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"

	maxLoggedClientID = 64
)

// RequestID tags every request with a UUID, returned in X-Request-ID and in
// error envelopes. An incoming X-Request-ID is adopted only if it is a
// canonical UUID, so the Go client can correlate its calls; any other value is
// replaced and logged (truncated) at debug level.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)

		if !isCanonicalUUID(id) {
			if id != "" {
				log.WithField("client_request_id", truncate(id, maxLoggedClientID)).
					Debug("replacing malformed client request ID")
			}

			id = uuid.NewString()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func isCanonicalUUID(s string) bool {
	if len(s) != 36 {
		return false
	}

	u, err := uuid.Parse(s)

	return err == nil && u.String() == s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}
