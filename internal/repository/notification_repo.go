package repository

import (
	"context"
	"time"

	"smartbin-backend/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	base
}

func NewNotificationRepo(db *gorm.DB, timeout time.Duration) *NotificationRepository {
	return &NotificationRepository{base: newBase(db, timeout)}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{base: r.withTx(tx)}
}

// CreateNotification appends a notification row
func (r *NotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Create(n).Error
}

// GetAllNotifications lists notifications, newest first
func (r *NotificationRepository) GetAllNotifications(ctx context.Context) ([]models.Notification, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var notifications []models.Notification
	err := db.Order("posted_at DESC, id DESC").Find(&notifications).Error
	return notifications, err
}

// MarkRead clears the unread flag and returns the affected row count
func (r *NotificationRepository) MarkRead(ctx context.Context, id uint) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	result := db.Model(&models.Notification{}).
		Where("id = ?", id).
		Update("is_unread", false)
	return result.RowsAffected, result.Error
}

// NotificationExists reports whether a notification row exists
func (r *NotificationRepository) NotificationExists(ctx context.Context, id uint) (bool, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.Notification{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
