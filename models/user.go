package models

import (
	"fmt"
	"net/url"
	"time"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	DisplayName  string    `json:"display_name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Hidden from JSON
	AvatarURL    string    `json:"avatar_url" gorm:"size:512"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Ratings []OutfitRating `json:"ratings,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// DefaultAvatarURL returns a deterministic generated avatar for the email.
func DefaultAvatarURL(email string) string {
	return fmt.Sprintf("https://api.dicebear.com/8.x/avataaars-neutral/svg?seed=%s", url.QueryEscape(email))
}
