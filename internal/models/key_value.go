package models

import (
	"time"

	"gorm.io/datatypes"
)

// KeyValueEntry is a row of the local key-value table used for durable device storage.
type KeyValueEntry struct {
	Key       string         `gorm:"primaryKey;column:entry_key;size:128" json:"key"`
	Value     datatypes.JSON `gorm:"type:json" json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName pins the table name independently of the struct name.
func (KeyValueEntry) TableName() string {
	return "key_value_entries"
}
