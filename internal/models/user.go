package models

import "time"

// User roles
const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// ValidRole reports whether r is a known role
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleManager || r == RoleAdmin
}

// User represents the users table
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Email         string    `gorm:"size:191;not null;uniqueIndex" json:"email"`
	Password      string    `gorm:"size:255;not null" json:"-"`
	FullName      string    `gorm:"size:255;not null" json:"full_name"`
	UserCode      string    `gorm:"size:13;not null;uniqueIndex" json:"user_code"`
	GiftPoints    int       `gorm:"column:giftpoints;not null;default:0" json:"giftpoints"`
	NbTrashThrown int       `gorm:"column:nb_trashthrown;not null;default:0" json:"nb_trashthrown"`
	PointsGoal    *int      `json:"points_goal"`
	Role          string    `gorm:"size:20;not null;default:user" json:"role"`
	IsBanned      bool      `gorm:"column:isbanned;not null" json:"isbanned"`
	ProfileImage  *string   `gorm:"size:255" json:"profile_image"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// RefreshToken represents the refresh_tokens table
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TokenHash string    `gorm:"not null;size:255;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// TableName specifies the table name for RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
