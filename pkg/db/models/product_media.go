package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductMedia stores ordered media entries for products. Position zero is
// rendered as the product thumbnail.
type ProductMedia struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	MediaID   uuid.UUID `gorm:"column:media_id;type:uuid;not null"`
	Position  int       `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
