package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/models"
)

// BuyerHandler serves buyer CRUD and history endpoints.
type BuyerHandler struct {
	buyers  BuyerService
	history HistoryService
	filters FilterValidator
	log     *logrus.Logger
}

// NewBuyerHandler creates a BuyerHandler.
func NewBuyerHandler(buyers BuyerService, history HistoryService, filters FilterValidator, log *logrus.Logger) *BuyerHandler {
	return &BuyerHandler{buyers: buyers, history: history, filters: filters, log: log}
}

// List handles GET /api/v1/buyers.
func (h *BuyerHandler) List(c *gin.Context) {
	filter := filterQuery(c)
	if err := h.filters.Filter(filter); err != nil {
		respondServiceError(c, h.log, "listing buyers", err)
		return
	}

	page, err := h.buyers.ListBuyers(c.Request.Context(), filter, pageQuery(c))
	if err != nil {
		respondServiceError(c, h.log, "listing buyers", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Get handles GET /api/v1/buyers/:id.
func (h *BuyerHandler) Get(c *gin.Context) {
	buyerID, ok := pathBuyerID(c)
	if !ok {
		return
	}

	detail, err := h.buyers.GetBuyer(c.Request.Context(), buyerID)
	if err != nil {
		respondServiceError(c, h.log, "getting buyer", err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Create handles POST /api/v1/buyers.
func (h *BuyerHandler) Create(c *gin.Context) {
	actor, ok := getIdentity(c)
	if !ok {
		return
	}

	var req models.CreateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	buyer, err := h.buyers.CreateBuyer(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, h.log, "creating buyer", err)
		return
	}

	h.log.WithFields(logrus.Fields{"action": models.AuditBuyerCreate, "user_id": actor.UserID, "buyer_id": buyer.ID}).Info("audit")

	c.JSON(http.StatusCreated, buyer)
}

// Update handles PUT /api/v1/buyers/:id. Omitted fields are left unchanged;
// an updatedAt in the body turns on the version check.
func (h *BuyerHandler) Update(c *gin.Context) {
	buyerID, ok := pathBuyerID(c)
	if !ok {
		return
	}

	actor, ok := getIdentity(c)
	if !ok {
		return
	}

	var req models.UpdateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	buyer, err := h.buyers.UpdateBuyer(c.Request.Context(), actor, buyerID, req)
	if err != nil {
		respondServiceError(c, h.log, "updating buyer", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"action":     models.AuditBuyerUpdate,
		"user_id":    actor.UserID,
		"buyer_id":   buyerID,
		"versioned":  req.UpdatedAt != nil,
		"updated_at": buyer.UpdatedAt,
	}).Info("audit")

	c.JSON(http.StatusOK, buyer)
}

// Delete handles DELETE /api/v1/buyers/:id.
func (h *BuyerHandler) Delete(c *gin.Context) {
	buyerID, ok := pathBuyerID(c)
	if !ok {
		return
	}

	actor, ok := getIdentity(c)
	if !ok {
		return
	}

	if err := h.buyers.DeleteBuyer(c.Request.Context(), actor, buyerID); err != nil {
		respondServiceError(c, h.log, "deleting buyer", err)
		return
	}

	h.log.WithFields(logrus.Fields{"action": models.AuditBuyerDelete, "user_id": actor.UserID, "buyer_id": buyerID}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// History handles GET /api/v1/buyers/:id/history.
func (h *BuyerHandler) History(c *gin.Context) {
	buyerID, ok := pathBuyerID(c)
	if !ok {
		return
	}

	limit, offset := historyWindow(c)

	entries, hasMore, err := h.history.ListHistory(c.Request.Context(), buyerID, limit, offset)
	if err != nil {
		respondServiceError(c, h.log, "listing buyer history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": entries, "has_more": hasMore})
}
