package repository

import (
	"context"
	"time"

	"smartbin-backend/internal/models"

	"gorm.io/gorm"
)

type DeviceAPIKeyRepository struct {
	base
}

func NewDeviceAPIKeyRepo(db *gorm.DB, timeout time.Duration) *DeviceAPIKeyRepository {
	return &DeviceAPIKeyRepository{base: newBase(db, timeout)}
}

// CreateAPIKey stores a new device key
func (r *DeviceAPIKeyRepository) CreateAPIKey(ctx context.Context, key *models.DeviceAPIKey) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Create(key).Error
}

// GetActiveAPIKeyByPrefix retrieves an active key by its public prefix
func (r *DeviceAPIKeyRepository) GetActiveAPIKeyByPrefix(ctx context.Context, prefix string) (*models.DeviceAPIKey, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var key models.DeviceAPIKey
	err := db.Where("prefix = ? AND is_active = ?", prefix, true).First(&key).Error
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// GetAllAPIKeys lists every key, newest first
func (r *DeviceAPIKeyRepository) GetAllAPIKeys(ctx context.Context) ([]models.DeviceAPIKey, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var keys []models.DeviceAPIKey
	err := db.Order("created_at DESC, id DESC").Find(&keys).Error
	return keys, err
}

// RevokeAPIKey deactivates a key and returns the affected row count
func (r *DeviceAPIKeyRepository) RevokeAPIKey(ctx context.Context, id uint) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	result := db.Model(&models.DeviceAPIKey{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

// TouchAPIKey records the last time a key was used
func (r *DeviceAPIKeyRepository) TouchAPIKey(ctx context.Context, id uint, at time.Time) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Model(&models.DeviceAPIKey{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}
