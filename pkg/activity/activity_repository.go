package activity

import (
	"context"

	"gorm.io/gorm"

	"nomorewaste/entities"
)

// DefaultLimit bounds the activity feed returned with an inventory fetch.
const DefaultLimit = 50

type (
	ActivityRepository interface {
		WithTx(tx *gorm.DB) ActivityRepository
		AppendActivity(ctx context.Context, entry *entities.ActivityLog) error
		GetActivity(ctx context.Context, fridgeID string, limit int) ([]entities.ActivityLog, error)
	}

	activityRepository struct {
		db *gorm.DB
	}
)

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *activityRepository) WithTx(tx *gorm.DB) ActivityRepository {
	return &activityRepository{db: tx}
}

func (r *activityRepository) AppendActivity(ctx context.Context, entry *entities.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityRepository) GetActivity(ctx context.Context, fridgeID string, limit int) ([]entities.ActivityLog, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var logs []entities.ActivityLog
	if err := r.db.WithContext(ctx).
		Where("fridge_id = ?", fridgeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
