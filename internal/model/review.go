package model

import "time"

// Review represents a user's review of a book. Rating is bounded to [1,5].
type Review struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	BookID     uint      `json:"book_id" gorm:"not null;index"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`
	ReviewText string    `json:"review_text" gorm:"type:text;not null"`
	Rating     float64   `json:"rating" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
