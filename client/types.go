package client

import "github.com/persistorai/leadintake/internal/models"

// Wire types shared with the server.
type (
	Buyer              = models.Buyer
	BuyerDetail        = models.BuyerDetail
	BuyerPage          = models.BuyerPage
	HistoryEntry       = models.HistoryEntry
	CreateBuyerRequest = models.CreateBuyerRequest
	UpdateBuyerRequest = models.UpdateBuyerRequest
	ImportResult       = models.ImportResult
	Session            = models.Session
	Identity           = models.Identity
	AuditEntry         = models.AuditEntry
)

// HealthResponse is the liveness probe payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ListOptions filters and pages a buyer list or export. Zero values are omitted.
type ListOptions struct {
	Search       string
	City         models.City
	PropertyType models.PropertyType
	Status       models.Status
	Timeline     models.Timeline
	Page         int
	PageSize     int
}
