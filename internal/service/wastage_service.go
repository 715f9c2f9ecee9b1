package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type WastageEntryRequest struct {
	OrderItemID string `json:"order_item_id" binding:"required"`
	Wastage     *int   `json:"wastage" binding:"required,gte=0"`
	NotReceived *int   `json:"not_received" binding:"required,gte=0"`
}

type RegisterWastageRequest struct {
	Level   string                `json:"level" binding:"required,oneof=farmer agency"`
	Entries []WastageEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

// WastageService records losses at the two fulfillment checkpoints. Each
// checkpoint is validated against the quantity available at that checkpoint:
// the farmer level against delivered quantities, the agency level against
// received quantities. Re-registration overwrites, it never accumulates.
type WastageService interface {
	RegisterWastage(ctx context.Context, actingUserID string, orderID string, req RegisterWastageRequest) (*model.Order, error)
}

type wastageService struct {
	orderRepo repository.OrderRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewWastageService(
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) WastageService {
	return &wastageService{
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		hub:       hub,
	}
}

func (s *wastageService) RegisterWastage(ctx context.Context, actingUserID string, orderID string, req RegisterWastageRequest) (*model.Order, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	var order *model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err = s.orderRepo.FindByIDWithItemsForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		entries, verr := resolveWastageEntries(order.Items, req.Entries)
		if len(verr) > 0 {
			return verr
		}

		itemsByID := make(map[uuid.UUID]*model.OrderItem, len(order.Items))
		for i := range order.Items {
			itemsByID[order.Items[i].ID] = &order.Items[i]
		}

		// Validate the sum invariant on every entry before touching any
		// stored field: a single violation rejects the whole submission
		var violations []WastageViolation
		for itemID, entry := range entries {
			item := itemsByID[itemID]

			var basis *int
			switch req.Level {
			case model.WastageLevelFarmer:
				basis = item.DeliveredQuantity
				if basis == nil {
					return ErrDeliveryNotRecorded
				}
			case model.WastageLevelAgency:
				basis = item.ReceivedQuantity
				if basis == nil {
					return ErrReceiptNotRecorded
				}
			}

			if entry.wastage+entry.notReceived > *basis {
				violations = append(violations, WastageViolation{
					OrderItemID: itemID,
					Wastage:     entry.wastage,
					NotReceived: entry.notReceived,
					Limit:       *basis,
					Excess:      entry.wastage + entry.notReceived - *basis,
				})
			}
		}
		if len(violations) > 0 {
			return &ConstraintViolationError{Level: req.Level, Violations: violations}
		}

		for itemID, entry := range entries {
			item := itemsByID[itemID]
			wastage, notReceived := entry.wastage, entry.notReceived
			switch req.Level {
			case model.WastageLevelFarmer:
				item.FarmerWastage = &wastage
				item.FarmerNotReceived = &notReceived
			case model.WastageLevelAgency:
				item.AgencyWastage = &wastage
				item.AgencyNotReceived = &notReceived
			}
			if err := s.orderRepo.SaveItem(txCtx, item); err != nil {
				return fmt.Errorf("failed to save order item: %w", err)
			}
		}

		return s.audit(txCtx, actingUserID, order, req)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(order, req.Level)
	return order, nil
}

type wastageEntry struct {
	wastage     int
	notReceived int
}

func resolveWastageEntries(items []model.OrderItem, entries []WastageEntryRequest) (map[uuid.UUID]wastageEntry, ValidationErrors) {
	known := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}

	var errs ValidationErrors
	result := make(map[uuid.UUID]wastageEntry, len(entries))
	for i, entry := range entries {
		itemID, err := uuid.Parse(entry.OrderItemID)
		if err != nil || !known[itemID] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("entries[%d].order_item_id", i),
				Message: "does not reference an item of this order",
			})
			continue
		}
		// Negative input is stopped at the boundary, before the sum
		// invariant is ever evaluated
		if entry.Wastage == nil || *entry.Wastage < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("entries[%d].wastage", i),
				Message: "must be a non-negative integer",
			})
			continue
		}
		if entry.NotReceived == nil || *entry.NotReceived < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("entries[%d].not_received", i),
				Message: "must be a non-negative integer",
			})
			continue
		}
		result[itemID] = wastageEntry{wastage: *entry.Wastage, notReceived: *entry.NotReceived}
	}
	return result, errs
}

func (s *wastageService) audit(ctx context.Context, actingUserID string, order *model.Order, req RegisterWastageRequest) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(actingUserID); err == nil {
		uid = &parsed
	}

	details, _ := json.Marshal(map[string]interface{}{
		"po_number": order.PoNumber,
		"level":     req.Level,
		"entries":   len(req.Entries),
	})
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     model.ActionRegisterWastage,
		EntityID:   order.ID.String(),
		EntityName: order.PoNumber,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *wastageService) broadcast(order *model.Order, level string) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(OrderEvent{
		Event: "order.wastage_registered",
		Data: map[string]interface{}{
			"order_id":  order.ID.String(),
			"po_number": order.PoNumber,
			"level":     level,
		},
	})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}
