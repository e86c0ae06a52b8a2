package models

import (
	"time"
)

// Upload records one processed screenshot, whether or not it produced rows.
type Upload struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	BatchID     string `gorm:"size:36;uniqueIndex;not null"`
	FileName    string `gorm:"size:255;not null"`
	ContentType string `gorm:"size:128"`
	Lines       int    `gorm:"not null;default:0"` // text lines returned by OCR
	Records     int    `gorm:"not null;default:0"` // observations merged into the ledger
	// Failed marks an upload whose OCR or merge failed; the ledger was not touched.
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
