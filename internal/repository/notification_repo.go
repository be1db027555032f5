package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/marvingabia/da-agrimanage-gabia/internal/model"
)

const defaultNotificationLimit = 50

// NotificationLogRepository fan-out audit records.
type NotificationLogRepository interface {
	Create(ctx context.Context, log *model.NotificationLog) error
	// List newest first; limit <= 0 means the default of 50.
	List(ctx context.Context, limit int) ([]model.NotificationLog, error)
}

type notificationLogRepo struct {
	db *gorm.DB
}

// NewNotificationLogRepo creates a NotificationLogRepository.
func NewNotificationLogRepo(db *gorm.DB) NotificationLogRepository {
	return &notificationLogRepo{db: db}
}

func (r *notificationLogRepo) Create(ctx context.Context, log *model.NotificationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *notificationLogRepo) List(ctx context.Context, limit int) ([]model.NotificationLog, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	var logs []model.NotificationLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
