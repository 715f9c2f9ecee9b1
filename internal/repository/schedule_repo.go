package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"gorm.io/gorm"
)

type ScheduleRepository interface {
	BulkCreate(ctx context.Context, entries []model.DeliveryScheduleEntry) error
	ListByDate(ctx context.Context, date time.Time) ([]model.DeliveryScheduleEntry, error)
	List(ctx context.Context, date *time.Time, page, limit int) ([]model.DeliveryScheduleEntry, int64, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) BulkCreate(ctx context.Context, entries []model.DeliveryScheduleEntry) error {
	return GetDB(ctx, r.db).Create(&entries).Error
}

// ListByDate returns every schedule entry for the target delivery date.
// An empty result is a valid "nothing scheduled" outcome, not an error.
func (r *scheduleRepository) ListByDate(ctx context.Context, date time.Time) ([]model.DeliveryScheduleEntry, error) {
	var entries []model.DeliveryScheduleEntry
	if err := GetDB(ctx, r.db).
		Where("scheduled_date = ?", date.Format("2006-01-02")).
		Order("created_at asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *scheduleRepository) List(ctx context.Context, date *time.Time, page, limit int) ([]model.DeliveryScheduleEntry, int64, error) {
	var entries []model.DeliveryScheduleEntry
	var total int64

	db := GetDB(ctx, r.db).Model(&model.DeliveryScheduleEntry{})
	if date != nil {
		db = db.Where("scheduled_date = ?", date.Format("2006-01-02"))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").Preload("Depot").Preload("DepotVariant").Preload("Agency").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
