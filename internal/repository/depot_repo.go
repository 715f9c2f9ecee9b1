package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DepotRepository covers depots and the delivery agencies attached to them
type DepotRepository interface {
	CreateDepot(ctx context.Context, depot *model.Depot) error
	UpdateDepot(ctx context.Context, depot *model.Depot) error
	DeleteDepot(ctx context.Context, id uuid.UUID) error
	FindDepotByID(ctx context.Context, id uuid.UUID) (*model.Depot, error)
	ListDepots(ctx context.Context, page, limit int, search string) ([]model.Depot, int64, error)

	CreateAgency(ctx context.Context, agency *model.Agency) error
	UpdateAgency(ctx context.Context, agency *model.Agency) error
	DeleteAgency(ctx context.Context, id uuid.UUID) error
	FindAgencyByID(ctx context.Context, id uuid.UUID) (*model.Agency, error)
	ListAgencies(ctx context.Context, page, limit int, search string) ([]model.Agency, int64, error)
}

type depotRepository struct {
	db *gorm.DB
}

func NewDepotRepository(db *gorm.DB) DepotRepository {
	return &depotRepository{db: db}
}

func (r *depotRepository) CreateDepot(ctx context.Context, depot *model.Depot) error {
	return GetDB(ctx, r.db).Create(depot).Error
}

func (r *depotRepository) UpdateDepot(ctx context.Context, depot *model.Depot) error {
	return GetDB(ctx, r.db).Save(depot).Error
}

func (r *depotRepository) DeleteDepot(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Depot{}).Error
}

func (r *depotRepository) FindDepotByID(ctx context.Context, id uuid.UUID) (*model.Depot, error) {
	var depot model.Depot
	if err := GetDB(ctx, r.db).First(&depot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &depot, nil
}

func (r *depotRepository) ListDepots(ctx context.Context, page, limit int, search string) ([]model.Depot, int64, error) {
	var depots []model.Depot
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Depot{})
	if search != "" {
		db = db.Where("name ILIKE ? OR city ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&depots).Error; err != nil {
		return nil, 0, err
	}

	return depots, total, nil
}

func (r *depotRepository) CreateAgency(ctx context.Context, agency *model.Agency) error {
	return GetDB(ctx, r.db).Create(agency).Error
}

func (r *depotRepository) UpdateAgency(ctx context.Context, agency *model.Agency) error {
	return GetDB(ctx, r.db).Save(agency).Error
}

func (r *depotRepository) DeleteAgency(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Agency{}).Error
}

func (r *depotRepository) FindAgencyByID(ctx context.Context, id uuid.UUID) (*model.Agency, error) {
	var agency model.Agency
	if err := GetDB(ctx, r.db).First(&agency, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &agency, nil
}

func (r *depotRepository) ListAgencies(ctx context.Context, page, limit int, search string) ([]model.Agency, int64, error) {
	var agencies []model.Agency
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Agency{})
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Depot").Order("created_at desc").Offset(offset).Limit(limit).Find(&agencies).Error; err != nil {
		return nil, 0, err
	}

	return agencies, total, nil
}
