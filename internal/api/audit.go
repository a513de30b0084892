package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/models"
)

const defaultRetentionDays = 90

// auditParams are the GET /audit query parameters.
type auditParams struct {
	EntityType string    `form:"entity_type" binding:"omitempty,oneof=buyer user audit_log"`
	EntityID   string    `form:"entity_id" binding:"omitempty,max=64"`
	Action     string    `form:"action" binding:"omitempty,max=64"`
	Since      time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit      int       `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset     int       `form:"offset" binding:"omitempty,min=0,max=100000"`
}

func (p auditParams) query() models.AuditQuery {
	q := models.AuditQuery{
		EntityType: p.EntityType,
		EntityID:   p.EntityID,
		Action:     p.Action,
		Limit:      p.Limit,
		Offset:     p.Offset,
	}

	if !p.Since.IsZero() {
		q.Since = &p.Since
	}

	return q
}

// purgeParams are the DELETE /audit query parameters.
type purgeParams struct {
	RetentionDays *int `form:"retention_days" binding:"omitempty,min=1,max=3650"`
}

// AuditHandler serves the audit log.
type AuditHandler struct {
	audit     AuditService
	log       *logrus.Logger
	retention int
}

// NewAuditHandler creates an AuditHandler. retentionDays is the purge default
// when the request names none; non-positive selects 90.
func NewAuditHandler(audit AuditService, log *logrus.Logger, retentionDays int) *AuditHandler {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}

	return &AuditHandler{audit: audit, log: log, retention: retentionDays}
}

// Query handles GET /api/v1/audit.
func (h *AuditHandler) Query(c *gin.Context) {
	var p auditParams
	if err := c.ShouldBindQuery(&p); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest,
			"invalid audit query: since must be RFC 3339, limit 1-1000, entity_type buyer, user or audit_log")

		return
	}

	entries, hasMore, err := h.audit.QueryAudit(c.Request.Context(), p.query())
	if err != nil {
		respondServiceError(c, h.log, "querying audit log", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries, "has_more": hasMore})
}

// Purge handles DELETE /api/v1/audit.
func (h *AuditHandler) Purge(c *gin.Context) {
	actor, ok := getIdentity(c)
	if !ok {
		return
	}

	var p purgeParams
	if err := c.ShouldBindQuery(&p); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "retention_days must be between 1 and 3650")
		return
	}

	days := h.retention
	if p.RetentionDays != nil {
		days = *p.RetentionDays
	}

	deleted, err := h.audit.PurgeOldEntries(c.Request.Context(), days)
	if err != nil {
		respondServiceError(c, h.log, "purging audit log", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"action":         models.AuditLogPurge,
		"user_id":        actor.UserID,
		"deleted":        deleted,
		"retention_days": days,
	}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "retention_days": days})
}
