package models

import "time"

// PlayerTotal is one row of the season ledger in SQL form.
type PlayerTotal struct {
	Name        string `gorm:"primaryKey;size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Position    int     `gorm:"not null;index"` // ledger order, used for stable ties
	Appearances int     `gorm:"not null"`
	Goals       int     `gorm:"not null;default:0"`
	Assists     int     `gorm:"not null;default:0"`
	RatingTotal float64 `gorm:"not null;default:0"`
}
