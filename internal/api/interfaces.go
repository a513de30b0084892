package api

import (
	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/models"
)

// Handler dependencies, aliased to the canonical domain interfaces.
type (
	BuyerService   = domain.BuyerService
	HistoryService = domain.HistoryService
	ImportService  = domain.ImportService
	ExportService  = domain.ExportService
	AuthService    = domain.AuthService
	AuditService   = domain.AuditService
	HealthChecker  = domain.HealthChecker
)

// QueueProbe reports the audit writer's backlog.
type QueueProbe interface {
	Backlog() (depth, capacity int)
}

// FilterValidator checks list and export filters before they reach a store.
type FilterValidator interface {
	Filter(f models.BuyerFilter) error
}
