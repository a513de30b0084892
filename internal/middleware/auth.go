package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/models"
)

// IdentityKey is the gin context key holding the caller's models.Identity.
const IdentityKey = "identity"

// rejectFloor is the minimum latency of a 401, so a missing, malformed or
// forged token all take the same time.
const rejectFloor = 50 * time.Millisecond

const bearerChallenge = `Bearer realm="leadintake"`

// Authenticator resolves a bearer token to the identity it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
}

// AuthMiddleware requires a valid bearer token and stores the caller's
// identity in the context.
func AuthMiddleware(authn Authenticator, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			reject(c, start, "missing or invalid authorization header")
			return
		}

		id, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.WithFields(logrus.Fields{
				"client_ip":  c.ClientIP(),
				"path":       c.Request.URL.Path,
				"user_agent": c.Request.UserAgent(),
				"request_id": c.GetString(RequestIDKey),
			}).WithError(err).Warn("authentication failed")

			reject(c, start, "invalid or expired token")

			return
		}

		SetIdentity(c, *id)
		c.Next()
	}
}

func reject(c *gin.Context, start time.Time, msg string) {
	if wait := rejectFloor - time.Since(start); wait > 0 {
		time.Sleep(wait)
	}

	c.Header("WWW-Authenticate", bearerChallenge)
	respondError(c, http.StatusUnauthorized, "unauthorized", msg)
}

// SetIdentity stores id as the authenticated caller.
func SetIdentity(c *gin.Context, id models.Identity) {
	c.Set(IdentityKey, id)
}

// IdentityFrom returns the caller stored by AuthMiddleware.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return models.Identity{}, false
	}

	id, ok := v.(models.Identity)

	return id, ok && id.UserID != ""
}

// BearerToken returns the credentials of an Authorization header using the
// Bearer scheme, or "". The scheme name is case-insensitive.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}
