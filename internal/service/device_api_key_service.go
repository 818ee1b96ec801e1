package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartbin-backend/internal/logger"
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/repository"
	"smartbin-backend/pkg/utils"

	"gorm.io/gorm"
)

// Device keys look like "<prefix>.<secret>"; only the prefix is stored in clear
const apiKeySeparator = "."

type DeviceAPIKeyService struct {
	apiKeyRepo *repository.DeviceAPIKeyRepository
	now        func() time.Time
}

func NewDeviceAPIKeyService(apiKeyRepo *repository.DeviceAPIKeyRepository) *DeviceAPIKeyService {
	return &DeviceAPIKeyService{
		apiKeyRepo: apiKeyRepo,
		now:        time.Now,
	}
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateAPIKey creates a device key. The plain-text key is only returned here.
func (s *DeviceAPIKeyService) GenerateAPIKey(ctx context.Context, description string, ttl time.Duration) (*models.DeviceAPIKeyResponse, error) {
	if ttl < 0 {
		return nil, validationError("expiry must not be negative")
	}

	prefixBytes, err := randomBytes(6)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key prefix: %w", err)
	}
	secretBytes, err := randomBytes(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}

	prefix := hex.EncodeToString(prefixBytes)
	plainKey := prefix + apiKeySeparator + base64.RawURLEncoding.EncodeToString(secretBytes)

	hashedKey, err := utils.HashPassword(plainKey)
	if err != nil {
		return nil, fmt.Errorf("failed to hash API key: %w", err)
	}

	apiKey := &models.DeviceAPIKey{
		Prefix:      prefix,
		KeyHash:     hashedKey,
		Description: strings.TrimSpace(description),
		IsActive:    true,
	}
	if ttl > 0 {
		expires := s.now().Add(ttl).UTC()
		apiKey.ExpiresAt = &expires
	}

	if err := s.apiKeyRepo.CreateAPIKey(ctx, apiKey); err != nil {
		return nil, dbError("create API key", err)
	}

	return &models.DeviceAPIKeyResponse{DeviceAPIKey: *apiKey, APIKey: plainKey}, nil
}

// ValidateAPIKey checks a plain-text key against the stored hash and records its use
func (s *DeviceAPIKeyService) ValidateAPIKey(ctx context.Context, plainKey string) (*models.DeviceAPIKey, error) {
	plainKey = strings.TrimSpace(plainKey)
	if plainKey == "" {
		return nil, newError(ErrUnauthorized, "API key is required")
	}

	prefix, _, ok := strings.Cut(plainKey, apiKeySeparator)
	if !ok || prefix == "" {
		return nil, newError(ErrUnauthorized, "invalid API key")
	}

	key, err := s.apiKeyRepo.GetActiveAPIKeyByPrefix(ctx, prefix)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrUnauthorized, "invalid API key")
		}
		return nil, dbError("find API key", err)
	}

	now := s.now()
	if key.Expired(now) {
		return nil, newError(ErrUnauthorized, "API key expired")
	}
	if !utils.ComparePassword(key.KeyHash, plainKey) {
		return nil, newError(ErrUnauthorized, "invalid API key")
	}

	if err := s.apiKeyRepo.TouchAPIKey(ctx, key.ID, now.UTC()); err != nil {
		logger.Log.WithError(err).WithField("key_id", key.ID).Warn("failed to record API key use")
	}
	return key, nil
}

// ListAPIKeys returns every key without secrets
func (s *DeviceAPIKeyService) ListAPIKeys(ctx context.Context) ([]models.DeviceAPIKey, error) {
	keys, err := s.apiKeyRepo.GetAllAPIKeys(ctx)
	if err != nil {
		return nil, dbError("list API keys", err)
	}
	return keys, nil
}

// RevokeAPIKey deactivates a key
func (s *DeviceAPIKeyService) RevokeAPIKey(ctx context.Context, id uint) error {
	affected, err := s.apiKeyRepo.RevokeAPIKey(ctx, id)
	if err != nil {
		return dbError("revoke API key", err)
	}
	if affected == 0 {
		return notFoundError("API key not found or already revoked")
	}
	return nil
}
