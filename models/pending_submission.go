package models

import (
	"time"

	"github.com/lib/pq"
)

// PendingSubmission is a rating payload that failed durable persistence
// after all retries. Rows are drained front-to-back (FIFO by ID) when
// connectivity is restored or on the next authenticated session start.
//
// Every field is already in durable form: the image is a self-contained
// inline data URL, never a transient reference that could expire between
// enqueue and drain.
type PendingSubmission struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"user_id" gorm:"not null;index"`

	ImageDataURL string         `json:"image_data_url" gorm:"type:text;not null"`
	OutfitVibe   string         `json:"outfit_vibe" gorm:"size:100;not null"`
	LookScore    float64        `json:"look_score" gorm:"type:decimal(4,1);not null"`
	LookComment  string         `json:"look_comment" gorm:"type:text"`
	ColorScore   float64        `json:"color_score" gorm:"type:decimal(4,1);not null"`
	ColorComment string         `json:"color_comment" gorm:"type:text"`
	Suggestions  pq.StringArray `json:"suggestions" gorm:"type:text[]"`
	Observations string         `json:"observations" gorm:"type:text"`

	// Attempts counts drain passes that reached this item and failed.
	Attempts  int       `json:"attempts" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the PendingSubmission model
func (PendingSubmission) TableName() string {
	return "pending_submissions"
}

// ToRating converts the queued payload back into an OutfitRating row.
func (p *PendingSubmission) ToRating() OutfitRating {
	return OutfitRating{
		UserID:       p.UserID,
		ImageURL:     p.ImageDataURL,
		OutfitVibe:   p.OutfitVibe,
		LookScore:    p.LookScore,
		LookComment:  p.LookComment,
		ColorScore:   p.ColorScore,
		ColorComment: p.ColorComment,
		Suggestions:  p.Suggestions,
		Observations: p.Observations,
	}
}
