package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderListFilter narrows order listings
type OrderListFilter struct {
	Status   string
	VendorID *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	Save(ctx context.Context, order *model.Order) error
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []model.OrderItem) error
	SaveItem(ctx context.Context, item *model.OrderItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByIDWithItemsForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]model.Order, int64, error)
	CountByOrderDate(ctx context.Context, date time.Time) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) Save(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Omit("Items").Save(order).Error
}

func (r *orderRepository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []model.OrderItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	return db.Create(&items).Error
}

func (r *orderRepository) SaveItem(ctx context.Context, item *model.OrderItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Depot").
		Preload("Items.DepotVariant").
		Preload("Items.Agency").
		Preload("Vendor").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDWithItemsForUpdate locks the order row so concurrent lifecycle
// transitions serialize at the store
func (r *orderRepository) FindByIDWithItemsForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("order_id = ?", id).Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderListFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.VendorID != nil {
		db = db.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.DateFrom != nil {
		db = db.Where("delivery_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		db = db.Where("delivery_date <= ?", *filter.DateTo)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.
		Preload("Items").
		Preload("Vendor").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) CountByOrderDate(ctx context.Context, date time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("order_date = ?", date.Format("2006-01-02")).
		Count(&count).Error
	return count, err
}
