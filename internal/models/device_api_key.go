package models

import "time"

// DeviceAPIKey represents the device_api_keys table
// Used for authenticating bin sensor gateways that post telemetry
type DeviceAPIKey struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Prefix      string     `gorm:"size:16;not null;uniqueIndex" json:"prefix"`
	KeyHash     string     `gorm:"size:255;not null" json:"-"` // Hidden from JSON for security
	Description string     `gorm:"size:255" json:"description,omitempty"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at"`
	LastUsedAt  *time.Time `json:"last_used_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName specifies the table name for DeviceAPIKey model
func (DeviceAPIKey) TableName() string {
	return "device_api_keys"
}

// Expired reports whether the key is past its expiry at now
func (k DeviceAPIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !k.ExpiresAt.After(now)
}

// DeviceAPIKeyResponse is used when returning API keys to the client
// Includes the plain-text key (only shown once during generation)
type DeviceAPIKeyResponse struct {
	DeviceAPIKey
	APIKey string `json:"api_key,omitempty"`
}
