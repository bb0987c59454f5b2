package api

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CompressionRecord is one persisted compression run.
type CompressionRecord struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Filename         string    `json:"filename"`
	Tier             string    `json:"tier"`
	OriginalSize     int64     `json:"original_size"`
	CompressedSize   int64     `json:"compressed_size"`
	ReductionPercent float64   `json:"reduction_percent"`
}

// HistoryStore persists compression runs in sqlite.
type HistoryStore struct {
	db *gorm.DB
}

// OpenHistory opens (and migrates) the history database at path.
func OpenHistory(path string) (*HistoryStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&CompressionRecord{}); err != nil {
		return nil, err
	}
	return &HistoryStore{db: db}, nil
}

// Record inserts one run.
func (s *HistoryStore) Record(rec *CompressionRecord) error {
	return s.db.Create(rec).Error
}

// Recent returns the latest runs, newest first.
func (s *HistoryStore) Recent(limit int) ([]CompressionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []CompressionRecord
	err := s.db.Order("created_at desc").Limit(limit).Find(&out).Error
	return out, err
}
