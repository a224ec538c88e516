package model

import "time"

// Book represents a book in the catalog.
type Book struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Title         string    `json:"title" gorm:"size:255;not null;index"`
	Author        string    `json:"author" gorm:"size:255;not null;index"`
	Genre         string    `json:"genre" gorm:"size:100;not null;index"`
	YearPublished *int      `json:"year_published,omitempty"`
	Summary       string    `json:"summary,omitempty" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relations
	Reviews []Review `json:"reviews,omitempty" gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
}

// AverageRating returns the mean rating of the loaded reviews, or 0 with
// ok=false when no reviews are loaded.
func (b *Book) AverageRating() (float64, bool) {
	if len(b.Reviews) == 0 {
		return 0, false
	}
	var total float64
	for _, r := range b.Reviews {
		total += r.Rating
	}
	return total / float64(len(b.Reviews)), true
}
