package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/persistorai/leadintake/internal/middleware"
	"github.com/persistorai/leadintake/internal/models"
)

// Bounds for paginated list parameters. Out-of-range values are clamped, and
// unparsable ones fall back to the default, so list URLs never fail on paging.
const (
	maxPageSize   = 1000
	maxPageOffset = 100_000

	defaultPageSize    = 10
	defaultHistorySize = 50
)

// getIdentity returns the authenticated caller. It writes a 401 and returns
// false when the auth middleware did not run.
func getIdentity(c *gin.Context) (models.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthenticated")
	}

	return id, ok
}

// pathBuyerID returns the :id path parameter, writing a 400 unless it is a UUID.
func pathBuyerID(c *gin.Context) (string, bool) {
	id := c.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "id must be a UUID")
		return "", false
	}

	return id, true
}

// clampedQuery reads an integer query parameter. Missing, unparsable and
// below-lo values yield def; values above hi yield hi.
func clampedQuery(c *gin.Context, key string, def, lo, hi int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < lo {
		return def
	}

	return min(v, hi)
}

func pageQuery(c *gin.Context) models.PageRequest {
	return models.PageRequest{
		Page:     clampedQuery(c, "page", 1, 1, maxPageOffset),
		PageSize: clampedQuery(c, "page_size", defaultPageSize, 1, maxPageSize),
	}
}

func historyWindow(c *gin.Context) (limit, offset int) {
	return clampedQuery(c, "limit", defaultHistorySize, 1, maxPageSize),
		clampedQuery(c, "offset", 0, 0, maxPageOffset)
}

// filterQuery reads the list and export filter. Enum values are checked later
// by the FilterValidator.
func filterQuery(c *gin.Context) models.BuyerFilter {
	return models.BuyerFilter{
		Search:       c.Query("search"),
		City:         models.City(c.Query("city")),
		PropertyType: models.PropertyType(c.Query("propertyType")),
		Status:       models.Status(c.Query("status")),
		Timeline:     models.Timeline(c.Query("timeline")),
	}
}
