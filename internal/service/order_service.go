package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// DTOs
type OrderItemRequest struct {
	ProductID      string `json:"product_id" binding:"required"`
	DepotID        string `json:"depot_id" binding:"required"`
	DepotVariantID string `json:"depot_variant_id" binding:"required"`
	AgencyID       string `json:"agency_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gte=1"`
}

type CreateOrderRequest struct {
	VendorID          string             `json:"vendor_id" binding:"required"`
	OrderDate         string             `json:"order_date" binding:"required"`    // YYYY-MM-DD
	DeliveryDate      string             `json:"delivery_date" binding:"required"` // YYYY-MM-DD
	ContactPersonName string             `json:"contact_person_name"`
	Notes             string             `json:"notes"`
	Items             []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderRequest = CreateOrderRequest

type DeliveryLineRequest struct {
	OrderItemID       string `json:"order_item_id" binding:"required"`
	DeliveredQuantity *int   `json:"delivered_quantity" binding:"required,gte=0"`
}

type RecordDeliveryRequest struct {
	Items []DeliveryLineRequest `json:"items" binding:"required,min=1,dive"`
}

type ReceiptLineRequest struct {
	OrderItemID      string `json:"order_item_id" binding:"required"`
	ReceivedQuantity *int   `json:"received_quantity" binding:"omitempty,gte=0"`
}

type RecordReceiptRequest struct {
	// Items may be empty: every order item then receives the default
	// (delivered quantity, falling back to ordered quantity)
	Items []ReceiptLineRequest `json:"items" binding:"dive"`
}

type OrderFilter struct {
	Status   string
	VendorID string
	DateFrom string
	DateTo   string
	Page     int
	Limit    int
}

// OrderSummaryResponse is a derived, read-only view of an order:
// grouped quantities plus the order's monetary total
type OrderSummaryResponse struct {
	OrderID   uuid.UUID                                 `json:"order_id"`
	PoNumber  string                                    `json:"po_number"`
	ByProduct map[uuid.UUID]ProductSummary              `json:"by_product"`
	ByVariant map[uuid.UUID]map[uuid.UUID]VariantSummary `json:"by_variant"`
	Total     decimal.Decimal                           `json:"total"`
}

// Websocket payload broadcast to admin dashboards on lifecycle changes
type OrderEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, actingUserID string, req CreateOrderRequest) (*model.Order, error)
	UpdateOrder(ctx context.Context, actingUserID string, id string, req UpdateOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	RecordDelivery(ctx context.Context, actingUserID string, id string, req RecordDeliveryRequest) (*model.Order, []QuantityWarning, error)
	RecordReceipt(ctx context.Context, actingUserID string, id string, req RecordReceiptRequest) (*model.Order, []QuantityWarning, error)
	GetOrderSummary(ctx context.Context, id string) (OrderSummaryResponse, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

const dateLayout = "2006-01-02"

// validateOrderRequest collects every violation instead of failing on the
// first, so the caller can re-prompt the user once
func validateOrderRequest(req CreateOrderRequest) (orderDate, deliveryDate time.Time, vendorID uuid.UUID, items []model.OrderItem, verr ValidationErrors) {
	var errs ValidationErrors

	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil || vendorID == uuid.Nil {
		errs = append(errs, FieldError{Field: "vendor_id", Message: "a vendor must be selected"})
	}

	orderDate, err = time.Parse(dateLayout, req.OrderDate)
	if err != nil {
		errs = append(errs, FieldError{Field: "order_date", Message: "must be a valid YYYY-MM-DD date"})
	}
	deliveryDate, err = time.Parse(dateLayout, req.DeliveryDate)
	if err != nil {
		errs = append(errs, FieldError{Field: "delivery_date", Message: "must be a valid YYYY-MM-DD date"})
	} else if !orderDate.IsZero() && deliveryDate.Before(orderDate) {
		errs = append(errs, FieldError{Field: "delivery_date", Message: "must not be before the order date"})
	}

	if len(req.Items) == 0 {
		errs = append(errs, FieldError{Field: "items", Message: "at least one line item is required"})
	}

	for i, itemReq := range req.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		item := model.OrderItem{OrderedQuantity: itemReq.Quantity}

		if item.ProductID, err = uuid.Parse(itemReq.ProductID); err != nil || item.ProductID == uuid.Nil {
			errs = append(errs, FieldError{Field: prefix + "product_id", Message: "product is required"})
		}
		if item.DepotID, err = uuid.Parse(itemReq.DepotID); err != nil || item.DepotID == uuid.Nil {
			errs = append(errs, FieldError{Field: prefix + "depot_id", Message: "depot is required"})
		}
		if item.DepotVariantID, err = uuid.Parse(itemReq.DepotVariantID); err != nil || item.DepotVariantID == uuid.Nil {
			errs = append(errs, FieldError{Field: prefix + "depot_variant_id", Message: "depot variant is required"})
		}
		if item.AgencyID, err = uuid.Parse(itemReq.AgencyID); err != nil || item.AgencyID == uuid.Nil {
			errs = append(errs, FieldError{Field: prefix + "agency_id", Message: "agency is required"})
		}
		if itemReq.Quantity < 1 {
			errs = append(errs, FieldError{Field: prefix + "quantity", Message: "must be at least 1"})
		}

		items = append(items, item)
	}

	return orderDate, deliveryDate, vendorID, items, errs
}

func (s *orderService) CreateOrder(ctx context.Context, actingUserID string, req CreateOrderRequest) (*model.Order, error) {
	orderDate, deliveryDate, vendorID, items, verr := validateOrderRequest(req)
	if len(verr) > 0 {
		return nil, verr
	}

	order := &model.Order{
		VendorID:          vendorID,
		ContactPersonName: req.ContactPersonName,
		OrderDate:         orderDate,
		DeliveryDate:      deliveryDate,
		Notes:             req.Notes,
		Status:            model.OrderStatusPending,
		Items:             items,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// PO number is a backend-assigned per-day sequence; the unique index
		// on po_number catches the rare concurrent collision
		seq, err := s.orderRepo.CountByOrderDate(txCtx, orderDate)
		if err != nil {
			return fmt.Errorf("failed to compute po sequence: %w", err)
		}
		order.PoNumber = fmt.Sprintf("PO-%s-%04d", orderDate.Format("20060102"), seq+1)

		if err := s.orderRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		return s.audit(txCtx, actingUserID, model.ActionCreateOrder, order, map[string]interface{}{
			"po_number":     order.PoNumber,
			"vendor_id":     order.VendorID.String(),
			"delivery_date": req.DeliveryDate,
			"item_count":    len(order.Items),
		})
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("order.created", order)
	return order, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, actingUserID string, id string, req UpdateOrderRequest) (*model.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	orderDate, deliveryDate, vendorID, items, verr := validateOrderRequest(req)
	if len(verr) > 0 {
		return nil, verr
	}

	var order *model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err = s.orderRepo.FindByIDWithItemsForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		// Header and line items are frozen once the order leaves PENDING;
		// only stage-specific quantity fields may change after that
		if order.Status != model.OrderStatusPending {
			return ErrOrderNotEditable
		}

		order.VendorID = vendorID
		order.ContactPersonName = req.ContactPersonName
		order.OrderDate = orderDate
		order.DeliveryDate = deliveryDate
		order.Notes = req.Notes
		// PoNumber stays as assigned at creation

		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if err := s.orderRepo.ReplaceItems(txCtx, order.ID, items); err != nil {
			return fmt.Errorf("failed to replace order items: %w", err)
		}
		order.Items = items

		return s.audit(txCtx, actingUserID, model.ActionUpdateOrder, order, map[string]interface{}{
			"po_number":  order.PoNumber,
			"item_count": len(items),
		})
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	repoFilter := repository.OrderListFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}
	if filter.VendorID != "" {
		if vendorID, err := uuid.Parse(filter.VendorID); err == nil {
			repoFilter.VendorID = &vendorID
		}
	}
	if filter.DateFrom != "" {
		if from, err := time.Parse(dateLayout, filter.DateFrom); err == nil {
			repoFilter.DateFrom = &from
		}
	}
	if filter.DateTo != "" {
		if to, err := time.Parse(dateLayout, filter.DateTo); err == nil {
			repoFilter.DateTo = &to
		}
	}
	return s.orderRepo.List(ctx, repoFilter)
}

// RecordDelivery moves a PENDING order to DELIVERED, setting per-item
// delivered quantities. A second call on an already-DELIVERED order is
// rejected: amending a recorded delivery is not supported. Values above the
// ordered quantity pass with a warning, never a failure. Items omitted from
// the request keep their previous value.
func (s *orderService) RecordDelivery(ctx context.Context, actingUserID string, id string, req RecordDeliveryRequest) (*model.Order, []QuantityWarning, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil, ErrOrderNotFound
	}

	var order *model.Order
	var warnings []QuantityWarning

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err = s.orderRepo.FindByIDWithItemsForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if order.Status != model.OrderStatusPending {
			return ErrInvalidTransition
		}

		lines, verr := indexDeliveryLines(order.Items, req.Items)
		if len(verr) > 0 {
			return verr
		}

		for i := range order.Items {
			item := &order.Items[i]
			qty, ok := lines[item.ID]
			if !ok {
				continue // no change for omitted items
			}
			item.DeliveredQuantity = &qty
			if qty > item.OrderedQuantity {
				warnings = append(warnings, QuantityWarning{
					OrderItemID: item.ID,
					Field:       "delivered_quantity",
					Value:       qty,
					Limit:       item.OrderedQuantity,
					Message:     "delivered quantity exceeds ordered quantity",
				})
			}
			if err := s.orderRepo.SaveItem(txCtx, item); err != nil {
				return fmt.Errorf("failed to save order item: %w", err)
			}
		}

		order.Status = model.OrderStatusDelivered
		if err := s.orderRepo.UpdateStatus(txCtx, order.ID, order.Status); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		return s.audit(txCtx, actingUserID, model.ActionRecordDelivery, order, map[string]interface{}{
			"po_number": order.PoNumber,
			"lines":     len(req.Items),
			"warnings":  len(warnings),
		})
	})
	if err != nil {
		return nil, nil, err
	}

	s.broadcast("order.delivered", order)
	return order, warnings, nil
}

// RecordReceipt moves a DELIVERED order to RECEIVED. An item without an
// explicit received quantity defaults to its delivered quantity, falling
// back to the ordered quantity if delivery was never recorded for it, so a
// RECEIVED order never carries an unset received quantity.
func (s *orderService) RecordReceipt(ctx context.Context, actingUserID string, id string, req RecordReceiptRequest) (*model.Order, []QuantityWarning, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil, ErrOrderNotFound
	}

	var order *model.Order
	var warnings []QuantityWarning

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err = s.orderRepo.FindByIDWithItemsForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		// Receipt only follows delivery; a PENDING order cannot skip ahead
		// and RECEIVED is terminal
		if order.Status != model.OrderStatusDelivered {
			return ErrInvalidTransition
		}

		lines, verr := indexReceiptLines(order.Items, req.Items)
		if len(verr) > 0 {
			return verr
		}

		for i := range order.Items {
			item := &order.Items[i]

			qty, explicit := lines[item.ID]
			if !explicit {
				if item.DeliveredQuantity != nil {
					qty = *item.DeliveredQuantity
				} else {
					qty = item.OrderedQuantity
				}
			}

			basis := item.OrderedQuantity
			if item.DeliveredQuantity != nil {
				basis = *item.DeliveredQuantity
			}
			if explicit && qty > basis {
				warnings = append(warnings, QuantityWarning{
					OrderItemID: item.ID,
					Field:       "received_quantity",
					Value:       qty,
					Limit:       basis,
					Message:     "received quantity exceeds delivered quantity",
				})
			}

			item.ReceivedQuantity = &qty
			if err := s.orderRepo.SaveItem(txCtx, item); err != nil {
				return fmt.Errorf("failed to save order item: %w", err)
			}
		}

		order.Status = model.OrderStatusReceived
		if err := s.orderRepo.UpdateStatus(txCtx, order.ID, order.Status); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		return s.audit(txCtx, actingUserID, model.ActionRecordReceipt, order, map[string]interface{}{
			"po_number": order.PoNumber,
			"lines":     len(req.Items),
			"warnings":  len(warnings),
		})
	})
	if err != nil {
		return nil, nil, err
	}

	s.broadcast("order.received", order)
	return order, warnings, nil
}

func (s *orderService) GetOrderSummary(ctx context.Context, id string) (OrderSummaryResponse, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return OrderSummaryResponse{}, err
	}

	productIDs := make([]uuid.UUID, 0, len(order.Items))
	variantIDs := make([]uuid.UUID, 0, len(order.Items))
	seenProducts := make(map[uuid.UUID]bool)
	seenVariants := make(map[uuid.UUID]bool)
	for _, item := range order.Items {
		if !seenProducts[item.ProductID] {
			seenProducts[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
		if !seenVariants[item.DepotVariantID] {
			seenVariants[item.DepotVariantID] = true
			variantIDs = append(variantIDs, item.DepotVariantID)
		}
	}

	// Independent reference fetches run concurrently; both must complete
	// before the summary is assembled
	var products map[uuid.UUID]model.Product
	var variants map[uuid.UUID]model.DepotVariant
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.productRepo.FindByIDs(gctx, productIDs)
		return err
	})
	g.Go(func() error {
		var err error
		variants, err = s.productRepo.FindVariantsByIDs(gctx, variantIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return OrderSummaryResponse{}, fmt.Errorf("failed to load reference data: %w", err)
	}

	priceList := make(map[uuid.UUID]decimal.Decimal, len(products))
	for id, product := range products {
		priceList[id] = product.UnitPrice
	}

	return OrderSummaryResponse{
		OrderID:   order.ID,
		PoNumber:  order.PoNumber,
		ByProduct: GroupByProduct(order.Items, products),
		ByVariant: GroupByVariant(order.Items, products, variants),
		Total:     ComputeTotal(order.Items, priceList),
	}, nil
}

// indexDeliveryLines resolves request lines against the order's items
func indexDeliveryLines(items []model.OrderItem, lines []DeliveryLineRequest) (map[uuid.UUID]int, ValidationErrors) {
	known := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}

	var errs ValidationErrors
	result := make(map[uuid.UUID]int, len(lines))
	for i, line := range lines {
		itemID, err := uuid.Parse(line.OrderItemID)
		if err != nil || !known[itemID] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("items[%d].order_item_id", i),
				Message: "does not reference an item of this order",
			})
			continue
		}
		if line.DeliveredQuantity == nil || *line.DeliveredQuantity < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("items[%d].delivered_quantity", i),
				Message: "must be a non-negative integer",
			})
			continue
		}
		result[itemID] = *line.DeliveredQuantity
	}
	return result, errs
}

func indexReceiptLines(items []model.OrderItem, lines []ReceiptLineRequest) (map[uuid.UUID]int, ValidationErrors) {
	known := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}

	var errs ValidationErrors
	result := make(map[uuid.UUID]int, len(lines))
	for i, line := range lines {
		itemID, err := uuid.Parse(line.OrderItemID)
		if err != nil || !known[itemID] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("items[%d].order_item_id", i),
				Message: "does not reference an item of this order",
			})
			continue
		}
		if line.ReceivedQuantity == nil {
			continue // defaulting applies
		}
		if *line.ReceivedQuantity < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("items[%d].received_quantity", i),
				Message: "must be a non-negative integer",
			})
			continue
		}
		result[itemID] = *line.ReceivedQuantity
	}
	return result, errs
}

func (s *orderService) audit(ctx context.Context, actingUserID, action string, order *model.Order, payload map[string]interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(actingUserID); err == nil {
		uid = &parsed
	}

	details, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   order.ID.String(),
		EntityName: order.PoNumber,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *orderService) broadcast(event string, order *model.Order) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(OrderEvent{
		Event: event,
		Data: map[string]interface{}{
			"order_id":  order.ID.String(),
			"po_number": order.PoNumber,
			"status":    order.Status,
		},
	})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}
