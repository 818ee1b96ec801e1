package models

import "time"

// Notification types
const (
	NotificationUpdate = "update"
	NotificationSystem = "system"
	NotificationMail   = "mail"
)

// Notification represents the notifications table
// Append-only audit feed; only is_unread ever changes after insert.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Type        string    `gorm:"size:20;not null;index" json:"type"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	IsUnread    bool      `gorm:"not null;default:true" json:"is_unread"`
	PostedAt    time.Time `gorm:"autoCreateTime;index" json:"posted_at"`
	Target      string    `gorm:"column:forrr;size:255" json:"forrr"` // actor or audience label
}

// TableName specifies the table name for Notification model
func (Notification) TableName() string {
	return "notifications"
}
