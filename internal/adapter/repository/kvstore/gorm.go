package kvstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"makono-backend/internal/domain/kv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one row of the kv_entries table.
type Entry struct {
	Key       string    `gorm:"primaryKey;size:191;column:entry_key"`
	Value     []byte    `gorm:"column:entry_value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Entry) TableName() string { return "kv_entries" }

// GormStore serves the KV contract from a single SQL table (MySQL or SQLite).
type GormStore struct{ db *gorm.DB }

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

// Migrate creates kv_entries when missing.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Entry{})
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var out Entry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out.Value, nil
}

// Set upserts the row for key.
func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	return upsert(s.db.WithContext(ctx), key, value)
}

// SetMany upserts every entry in one transaction, in key order so concurrent
// batches lock rows in the same sequence.
func (s *GormStore) SetMany(ctx context.Context, entries map[string][]byte) error {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, k := range keys {
			if err := upsert(tx, k, entries[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsert(db *gorm.DB, key string, value []byte) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
	}).Create(&e).Error
}
