package models

import (
	"time"

	"github.com/google/uuid"
)

// Media captures metadata for uploaded image assets.
type Media struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID      uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	FileName     string    `gorm:"column:file_name;not null"`
	OriginalName string    `gorm:"column:original_name;not null"`
	Title        string    `gorm:"column:title;not null;default:''"`
	MimeType     string    `gorm:"column:mime_type;not null"`
	SizeBytes    int64     `gorm:"column:size_bytes;not null"`
	StorageKey   string    `gorm:"column:storage_key;not null;unique"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
