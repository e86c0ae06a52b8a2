package ledger

import (
	"context"
	"fmt"

	"ligapro/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// GormStore keeps the ledger in the player_totals table of a gorm database
// (PostgreSQL in production). It also journals processed uploads.
type GormStore struct {
	DB          *gorm.DB
	AutoMigrate bool
}

// OpenGormStore connects to PostgreSQL using dsn.
func OpenGormStore(dsn string, autoMigrate bool) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &GormStore{DB: db, AutoMigrate: autoMigrate}, nil
}

// NewGormStore wraps an existing connection.
func NewGormStore(db *gorm.DB, autoMigrate bool) *GormStore {
	return &GormStore{DB: db, AutoMigrate: autoMigrate}
}

// Init migrates player_totals and uploads when AutoMigrate is set.
func (s *GormStore) Init(ctx context.Context) error {
	if !s.AutoMigrate {
		return nil
	}
	db := s.DB.WithContext(ctx)
	if err := db.AutoMigrate(&models.PlayerTotal{}); err != nil {
		return fmt.Errorf("migrate player_totals: %w", err)
	}
	if err := db.AutoMigrate(&models.Upload{}); err != nil {
		return fmt.Errorf("migrate uploads: %w", err)
	}
	return nil
}

func (s *GormStore) Load(ctx context.Context) (*Ledger, error) {
	var rows []models.PlayerTotal
	if err := s.DB.WithContext(ctx).Order("position, name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load player_totals: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		if r.Appearances < 1 {
			return nil, fmt.Errorf("%w: %q has %d appearances", ErrCorruptRow, r.Name, r.Appearances)
		}
		entries = append(entries, Entry{
			Name:        r.Name,
			Appearances: r.Appearances,
			Goals:       r.Goals,
			Assists:     r.Assists,
			RatingTotal: r.RatingTotal,
		})
	}
	return FromEntries(entries), nil
}

// Save replaces the table contents inside one transaction.
func (s *GormStore) Save(ctx context.Context, l *Ledger) error {
	entries := l.Entries()
	rows := make([]models.PlayerTotal, len(entries))
	for i, e := range entries {
		rows[i] = models.PlayerTotal{
			Name:        e.Name,
			Position:    i,
			Appearances: e.Appearances,
			Goals:       e.Goals,
			Assists:     e.Assists,
			RatingTotal: e.RatingTotal,
		}
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.PlayerTotal{}).Error; err != nil {
			return fmt.Errorf("clear player_totals: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("insert player_totals: %w", err)
		}
		return nil
	})
}

// RecordUpload stores one upload journal row.
func (s *GormStore) RecordUpload(ctx context.Context, up models.Upload) error {
	if err := s.DB.WithContext(ctx).Create(&up).Error; err != nil {
		return fmt.Errorf("record upload %s: %w", up.FileName, err)
	}
	return nil
}
