package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Product, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)

	CreateVariant(ctx context.Context, variant *model.DepotVariant) error
	UpdateVariant(ctx context.Context, variant *model.DepotVariant) error
	DeleteVariant(ctx context.Context, id uuid.UUID) error
	FindVariantByID(ctx context.Context, id uuid.UUID) (*model.DepotVariant, error)
	FindVariantsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.DepotVariant, error)
	ListVariants(ctx context.Context, depotID *uuid.UUID, page, limit int) ([]model.DepotVariant, int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	var products []model.Product
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (r *productRepository) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if search != "" {
		db = db.Where("name ILIKE ? OR sku ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) CreateVariant(ctx context.Context, variant *model.DepotVariant) error {
	return GetDB(ctx, r.db).Create(variant).Error
}

func (r *productRepository) UpdateVariant(ctx context.Context, variant *model.DepotVariant) error {
	return GetDB(ctx, r.db).Save(variant).Error
}

func (r *productRepository) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.DepotVariant{}).Error
}

func (r *productRepository) FindVariantByID(ctx context.Context, id uuid.UUID) (*model.DepotVariant, error) {
	var variant model.DepotVariant
	if err := GetDB(ctx, r.db).Preload("Product").Preload("Depot").First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *productRepository) FindVariantsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.DepotVariant, error) {
	var variants []model.DepotVariant
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&variants).Error; err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]model.DepotVariant, len(variants))
	for _, v := range variants {
		result[v.ID] = v
	}
	return result, nil
}

func (r *productRepository) ListVariants(ctx context.Context, depotID *uuid.UUID, page, limit int) ([]model.DepotVariant, int64, error) {
	var variants []model.DepotVariant
	var total int64

	db := GetDB(ctx, r.db).Model(&model.DepotVariant{})
	if depotID != nil {
		db = db.Where("depot_id = ?", *depotID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").Preload("Depot").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&variants).Error; err != nil {
		return nil, 0, err
	}

	return variants, total, nil
}
