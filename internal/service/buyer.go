// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/metrics"
	"github.com/persistorai/leadintake/internal/models"
	"github.com/persistorai/leadintake/internal/validation"
)

// Compile-time checks: *BuyerService must satisfy the buyer and history services.
var (
	_ domain.BuyerService   = (*BuyerService)(nil)
	_ domain.HistoryService = (*BuyerService)(nil)
)

// DefaultHistoryPreview is how many history entries GetBuyer embeds.
const DefaultHistoryPreview = 5

// BuyerService validates buyer payloads and applies them through the store's
// atomic mutate-and-record operations.
type BuyerService struct {
	store          domain.BuyerStore
	engine         *validation.Engine
	auditWorker    AuditEnqueuer
	log            *logrus.Logger
	historyPreview int
}

// NewBuyerService creates a BuyerService. historyPreview <= 0 selects
// DefaultHistoryPreview.
func NewBuyerService(
	store domain.BuyerStore,
	engine *validation.Engine,
	auditWorker AuditEnqueuer,
	log *logrus.Logger,
	historyPreview int,
) *BuyerService {
	if historyPreview <= 0 {
		historyPreview = DefaultHistoryPreview
	}

	return &BuyerService{
		store:          store,
		engine:         engine,
		auditWorker:    auditWorker,
		log:            log,
		historyPreview: historyPreview,
	}
}

// ListBuyers returns one page of buyers matching filter (pass-through).
func (s *BuyerService) ListBuyers(
	ctx context.Context, filter models.BuyerFilter, page models.PageRequest,
) (*models.BuyerPage, error) {
	return s.store.ListBuyers(ctx, filter, page)
}

// GetBuyer returns a buyer with its owner and newest history entries.
func (s *BuyerService) GetBuyer(ctx context.Context, buyerID string) (*models.BuyerDetail, error) {
	return s.store.GetBuyer(ctx, buyerID, s.historyPreview)
}

// ListHistory returns a page of a buyer's history, newest first (pass-through).
func (s *BuyerService) ListHistory(
	ctx context.Context, buyerID string, limit, offset int,
) ([]models.HistoryEntry, bool, error) {
	return s.store.ListHistory(ctx, buyerID, limit, offset)
}

// CreateBuyer validates req and stores it owned by actor.
func (s *BuyerService) CreateBuyer(
	ctx context.Context, actor models.Identity, req models.CreateBuyerRequest,
) (*models.Buyer, error) {
	b, err := s.engine.Create(req)
	if err != nil {
		return nil, err
	}

	b.OwnerID = actor.UserID

	created, err := s.store.CreateBuyer(ctx, b)
	if err != nil {
		return nil, err
	}

	metrics.BuyerMutationsTotal.WithLabelValues(string(models.ActionCreated)).Inc()
	enqueueAudit(s.auditWorker, models.AuditRecord{
		Action:     models.AuditBuyerCreate,
		EntityType: models.AuditEntityBuyer,
		EntityID:   created.ID,
		Actor:      actor.UserID,
		Detail:     map[string]any{"fullName": created.FullName, "city": created.City},
	})

	return created, nil
}

// UpdateBuyer applies a partial update. Inside the store transaction the
// locked record is checked for ownership, then for the expected version, and
// only then is the payload merged and validated. An update that changes
// nothing returns the stored record untouched.
func (s *BuyerService) UpdateBuyer(
	ctx context.Context, actor models.Identity, buyerID string, req models.UpdateBuyerRequest,
) (*models.Buyer, error) {
	updated, changed, err := s.store.UpdateBuyer(ctx, buyerID, actor.UserID,
		func(current *models.Buyer) (*models.Buyer, error) {
			if err := CheckWrite(current, actor.UserID, req.UpdatedAt); err != nil {
				return nil, err
			}

			return s.engine.Update(current, req)
		})
	if err != nil {
		if errors.Is(err, models.ErrVersionConflict) {
			metrics.VersionConflictsTotal.Inc()
			s.log.WithFields(logrus.Fields{"buyer_id": buyerID, "actor": actor.UserID}).Info(models.AuditBuyerUpdate+" conflict")
		}

		return nil, err
	}

	if !changed {
		return updated, nil
	}

	metrics.BuyerMutationsTotal.WithLabelValues(string(models.ActionUpdated)).Inc()
	enqueueAudit(s.auditWorker, models.AuditRecord{
		Action:     models.AuditBuyerUpdate,
		EntityType: models.AuditEntityBuyer,
		EntityID:   updated.ID,
		Actor:      actor.UserID,
	})

	return updated, nil
}

// DeleteBuyer removes a buyer and its history. Only the owner may delete.
func (s *BuyerService) DeleteBuyer(ctx context.Context, actor models.Identity, buyerID string) error {
	var fullName string

	err := s.store.DeleteBuyer(ctx, buyerID, func(current *models.Buyer) error {
		if err := CheckWrite(current, actor.UserID, nil); err != nil {
			return err
		}

		fullName = current.FullName

		return nil
	})
	if err != nil {
		return err
	}

	metrics.BuyerMutationsTotal.WithLabelValues("DELETED").Inc()
	enqueueAudit(s.auditWorker, models.AuditRecord{
		Action:     models.AuditBuyerDelete,
		EntityType: models.AuditEntityBuyer,
		EntityID:   buyerID,
		Actor:      actor.UserID,
		Detail:     map[string]any{"fullName": fullName},
	})

	return nil
}
