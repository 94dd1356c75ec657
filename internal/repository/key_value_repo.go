package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gradx-api/internal/models"
)

// ErrKeyNotFound indicates no value has been stored under the key yet.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the durable on-device storage contract: opaque values under fixed keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

type gormKeyValueStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormKeyValueStore constructs a key-value store backed by a GORM table.
func NewGormKeyValueStore(db *gorm.DB) KeyValueStore {
	return &gormKeyValueStore{db: db, now: time.Now}
}

func (s *gormKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry models.KeyValueEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return []byte(entry.Value), nil
}

func (s *gormKeyValueStore) Put(ctx context.Context, key string, value []byte) error {
	entry := models.KeyValueEntry{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: s.now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}
