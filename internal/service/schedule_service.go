package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// ScheduleEntryRequest is one member demand row pushed in from the
// subscription system
type ScheduleEntryRequest struct {
	MemberID       string `json:"member_id" binding:"required"`
	DepotID        string `json:"depot_id" binding:"required"`
	ProductID      string `json:"product_id" binding:"required"`
	DepotVariantID string `json:"depot_variant_id" binding:"required"`
	AgencyID       string `json:"agency_id"` // optional: attribution may be unresolved upstream
	Quantity       int    `json:"quantity" binding:"required,gte=1"`
	ScheduledDate  string `json:"scheduled_date" binding:"required"` // YYYY-MM-DD
}

type ImportScheduleRequest struct {
	Entries []ScheduleEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

type ScheduleService interface {
	ImportEntries(ctx context.Context, actingUserID string, req ImportScheduleRequest) (int, error)
	ListEntries(ctx context.Context, date string, page, limit int) ([]model.DeliveryScheduleEntry, int64, error)
}

type scheduleService struct {
	scheduleRepo repository.ScheduleRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewScheduleService(
	scheduleRepo repository.ScheduleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ScheduleService {
	return &scheduleService{
		scheduleRepo: scheduleRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func (s *scheduleService) ImportEntries(ctx context.Context, actingUserID string, req ImportScheduleRequest) (int, error) {
	entries := make([]model.DeliveryScheduleEntry, 0, len(req.Entries))
	for i, entryReq := range req.Entries {
		entry, err := parseScheduleEntry(entryReq)
		if err != nil {
			return 0, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.scheduleRepo.BulkCreate(txCtx, entries); err != nil {
			return fmt.Errorf("failed to import schedule entries: %w", err)
		}

		var uid *uuid.UUID
		if parsed, err := uuid.Parse(actingUserID); err == nil {
			uid = &parsed
		}
		details, _ := json.Marshal(map[string]interface{}{"count": len(entries)})
		audit := &model.AuditLog{
			UserID:  uid,
			Action:  model.ActionImportSchedule,
			Details: string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (s *scheduleService) ListEntries(ctx context.Context, date string, page, limit int) ([]model.DeliveryScheduleEntry, int64, error) {
	page, limit = normalizePaging(page, limit)

	var filter *time.Time
	if date != "" {
		parsed, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid date: %w", err)
		}
		filter = &parsed
	}
	return s.scheduleRepo.List(ctx, filter, page, limit)
}

func parseScheduleEntry(req ScheduleEntryRequest) (model.DeliveryScheduleEntry, error) {
	var entry model.DeliveryScheduleEntry
	var err error

	if entry.MemberID, err = uuid.Parse(req.MemberID); err != nil {
		return entry, fmt.Errorf("invalid member_id: %w", err)
	}
	if entry.DepotID, err = uuid.Parse(req.DepotID); err != nil {
		return entry, fmt.Errorf("invalid depot_id: %w", err)
	}
	if entry.ProductID, err = uuid.Parse(req.ProductID); err != nil {
		return entry, fmt.Errorf("invalid product_id: %w", err)
	}
	if entry.DepotVariantID, err = uuid.Parse(req.DepotVariantID); err != nil {
		return entry, fmt.Errorf("invalid depot_variant_id: %w", err)
	}
	if req.AgencyID != "" {
		agencyID, err := uuid.Parse(req.AgencyID)
		if err != nil {
			return entry, fmt.Errorf("invalid agency_id: %w", err)
		}
		entry.AgencyID = &agencyID
	}
	if entry.ScheduledDate, err = time.Parse(dateLayout, req.ScheduledDate); err != nil {
		return entry, fmt.Errorf("invalid scheduled_date: %w", err)
	}
	entry.Quantity = req.Quantity
	return entry, nil
}
