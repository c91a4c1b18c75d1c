package navigation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/delarosa-dev/shopdeck-backend/pkg/db/models"
)

// Repository persists navigation tree entries.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new navigation entry.
func (r *Repository) Create(ctx context.Context, item *models.NavItem) (*models.NavItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Save persists changes to an existing entry.
func (r *Repository) Save(ctx context.Context, item *models.NavItem) (*models.NavItem, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// FindByID loads one entry.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.NavItem, error) {
	var item models.NavItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListSiblings returns the entries sharing a parent, ordered by position.
func (r *Repository) ListSiblings(ctx context.Context, parentID *uuid.UUID) ([]models.NavItem, error) {
	query := r.db.WithContext(ctx).Order("position ASC, created_at ASC")
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var rows []models.NavItem
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll returns every entry ordered for tree assembly.
func (r *Repository) ListAll(ctx context.Context) ([]models.NavItem, error) {
	var rows []models.NavItem
	if err := r.db.WithContext(ctx).
		Order("position ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdatePositions writes the position column for each provided entry.
func (r *Repository) UpdatePositions(ctx context.Context, items []models.NavItem) error {
	for _, item := range items {
		if err := r.db.WithContext(ctx).
			Model(&models.NavItem{}).
			Where("id = ?", item.ID).
			UpdateColumn("position", item.Position).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteByIDs removes the provided entries.
func (r *Repository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.NavItem{}).Error
}
