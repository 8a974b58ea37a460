package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// OutfitRating represents one evaluated outfit for a user.
//
// In the database the ID is server-generated. A freshly rated outfit first
// lives in the session cache under a clock-derived placeholder ID and gets
// its durable ID, canonical image URL and timestamp swapped in once the row
// is written (see cache.SessionCache.Reconcile).
type OutfitRating struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"user_id" gorm:"not null;index"`
	User   User `json:"-" gorm:"foreignKey:UserID"`

	// ImageURL is either a Cloudinary secure URL or an inline data URL
	// thumbnail when media storage is not configured.
	ImageURL string `json:"image_url" gorm:"type:text;not null"`

	// Evaluative fields populated by the scoring model
	OutfitVibe   string         `json:"outfit_vibe" gorm:"size:100;not null"`
	LookScore    float64        `json:"look_score" gorm:"type:decimal(4,1);not null;check:look_score >= 0 AND look_score <= 10"`
	LookComment  string         `json:"look_comment" gorm:"type:text"`
	ColorScore   float64        `json:"color_score" gorm:"type:decimal(4,1);not null;check:color_score >= 0 AND color_score <= 10"`
	ColorComment string         `json:"color_comment" gorm:"type:text"`
	Suggestions  pq.StringArray `json:"suggestions" gorm:"type:text[]"`
	Observations string         `json:"observations" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for the OutfitRating model
func (OutfitRating) TableName() string {
	return "ratings"
}

// RatingResult holds the evaluative fields as returned by the scoring model.
// Field names mirror the JSON contract of the model prompt.
type RatingResult struct {
	OutfitVibe   string   `json:"outfit_vibe"`
	LookScore    float64  `json:"look_score"`
	LookComment  string   `json:"look_comment"`
	ColorScore   float64  `json:"color_score"`
	ColorComment string   `json:"color_comment"`
	Suggestions  []string `json:"suggestions"`
	Observations string   `json:"observations"`
}

// UserStats is derived from the current rating list and never stored.
type UserStats struct {
	TotalRatings      int            `json:"total_ratings"`
	AverageStyleScore float64        `json:"average_style_score"`
	AverageColorScore float64        `json:"average_color_score"`
	StyleFrequency    map[string]int `json:"style_frequency"`
}
