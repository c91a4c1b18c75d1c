package models

import (
	"time"

	"github.com/google/uuid"
)

// NavItem is a navigation tree entry. Root entries carry a nil ParentID and
// siblings are ordered by Position.
type NavItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null"`
	Label     string     `gorm:"column:label;not null"`
	URL       string     `gorm:"column:url;not null;default:''"`
	PageID    *uuid.UUID `gorm:"column:page_id;type:uuid"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	Position  int        `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
