package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/persistorai/leadintake/internal/httputil"
	"github.com/persistorai/leadintake/internal/metrics"
)

func respondError(c *gin.Context, status int, errCode, message string) {
	respondErrorDetails(c, status, errCode, message, nil)
}

// respondErrorDetails counts the refusal under its error code and writes the
// shared envelope, so middleware rejections look like handler errors.
func respondErrorDetails(c *gin.Context, status int, errCode, message string, details map[string]any) {
	metrics.ErrorsTotal.WithLabelValues(errCode).Inc()
	httputil.RespondErrorDetails(c, status, errCode, message, details)
}
