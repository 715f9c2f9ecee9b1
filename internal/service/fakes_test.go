package service

import (
	"context"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. The tx manager fake just runs the callback:
// rollback semantics are not simulated, the services under test are expected
// to validate before they write.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	stored := *order
	stored.Items = append([]model.OrderItem(nil), order.Items...)
	r.orders[order.ID] = &stored
	return nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *model.Order) error {
	stored, ok := r.orders[order.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	items := stored.Items
	*stored = *order
	stored.Items = items
	return nil
}

func (r *fakeOrderRepo) ReplaceItems(_ context.Context, orderID uuid.UUID, items []model.OrderItem) error {
	stored, ok := r.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].OrderID = orderID
	}
	stored.Items = append([]model.OrderItem(nil), items...)
	return nil
}

func (r *fakeOrderRepo) SaveItem(_ context.Context, item *model.OrderItem) error {
	stored, ok := r.orders[item.OrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range stored.Items {
		if stored.Items[i].ID == item.ID {
			stored.Items[i] = *item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	stored, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = status
	return nil
}

func (r *fakeOrderRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.Order, error) {
	stored, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *stored
	copied.Items = append([]model.OrderItem(nil), stored.Items...)
	return &copied, nil
}

func (r *fakeOrderRepo) FindByIDWithItemsForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.FindByIDWithItems(ctx, id)
}

func (r *fakeOrderRepo) List(_ context.Context, filter repository.OrderListFilter) ([]model.Order, int64, error) {
	var result []model.Order
	for _, order := range r.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.VendorID != nil && order.VendorID != *filter.VendorID {
			continue
		}
		result = append(result, *order)
	}
	return result, int64(len(result)), nil
}

func (r *fakeOrderRepo) CountByOrderDate(_ context.Context, date time.Time) (int64, error) {
	var count int64
	y, m, d := date.Date()
	for _, order := range r.orders {
		oy, om, od := order.OrderDate.Date()
		if oy == y && om == m && od == d {
			count++
		}
	}
	return count, nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]model.Product
	variants map[uuid.UUID]model.DepotVariant
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: make(map[uuid.UUID]model.Product),
		variants: make(map[uuid.UUID]model.DepotVariant),
	}
}

func (r *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *model.Product) error {
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &product, nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	result := make(map[uuid.UUID]model.Product)
	for _, id := range ids {
		if product, ok := r.products[id]; ok {
			result[id] = product
		}
	}
	return result, nil
}

func (r *fakeProductRepo) List(_ context.Context, _, _ int, _ string) ([]model.Product, int64, error) {
	var result []model.Product
	for _, product := range r.products {
		result = append(result, product)
	}
	return result, int64(len(result)), nil
}

func (r *fakeProductRepo) CreateVariant(_ context.Context, variant *model.DepotVariant) error {
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	r.variants[variant.ID] = *variant
	return nil
}

func (r *fakeProductRepo) UpdateVariant(_ context.Context, variant *model.DepotVariant) error {
	r.variants[variant.ID] = *variant
	return nil
}

func (r *fakeProductRepo) DeleteVariant(_ context.Context, id uuid.UUID) error {
	delete(r.variants, id)
	return nil
}

func (r *fakeProductRepo) FindVariantByID(_ context.Context, id uuid.UUID) (*model.DepotVariant, error) {
	variant, ok := r.variants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &variant, nil
}

func (r *fakeProductRepo) FindVariantsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.DepotVariant, error) {
	result := make(map[uuid.UUID]model.DepotVariant)
	for _, id := range ids {
		if variant, ok := r.variants[id]; ok {
			result[id] = variant
		}
	}
	return result, nil
}

func (r *fakeProductRepo) ListVariants(_ context.Context, _ *uuid.UUID, _, _ int) ([]model.DepotVariant, int64, error) {
	var result []model.DepotVariant
	for _, variant := range r.variants {
		result = append(result, variant)
	}
	return result, int64(len(result)), nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _, _ int) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

type fakeScheduleRepo struct {
	entries []model.DeliveryScheduleEntry
}

func (r *fakeScheduleRepo) BulkCreate(_ context.Context, entries []model.DeliveryScheduleEntry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *fakeScheduleRepo) ListByDate(_ context.Context, date time.Time) ([]model.DeliveryScheduleEntry, error) {
	y, m, d := date.Date()
	var result []model.DeliveryScheduleEntry
	for _, entry := range r.entries {
		ey, em, ed := entry.ScheduledDate.Date()
		if ey == y && em == m && ed == d {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeScheduleRepo) List(_ context.Context, date *time.Time, _, _ int) ([]model.DeliveryScheduleEntry, int64, error) {
	if date == nil {
		return r.entries, int64(len(r.entries)), nil
	}
	result, err := r.ListByDate(context.Background(), *date)
	return result, int64(len(result)), err
}
