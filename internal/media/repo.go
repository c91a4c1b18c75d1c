package media

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/delarosa-dev/shopdeck-backend/pkg/db/models"
)

// Repository persists media metadata rows.
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

// Create inserts the metadata row.
func (r *Repository) Create(ctx context.Context, asset *models.Media) (*models.Media, error) {
	if err := r.db.WithContext(ctx).Create(asset).Error; err != nil {
		return nil, err
	}
	return asset, nil
}

// FindByID loads one asset row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	var asset models.Media
	if err := r.db.WithContext(ctx).First(&asset, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// FindByIDs loads the asset rows for the provided identifiers.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var assets []models.Media
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	MimeType string
	Query    string
	Limit    int
}

// List returns assets newest first, optionally filtered by mime type or a
// name/title substring.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Media, error) {
	query := r.db.WithContext(ctx).Model(&models.Media{}).
		Order("created_at DESC, id DESC")

	if filter.MimeType != "" {
		query = query.Where("mime_type = ?", filter.MimeType)
	}
	if needle := strings.TrimSpace(filter.Query); needle != "" {
		pattern := "%" + strings.ToLower(needle) + "%"
		query = query.Where("LOWER(original_name) LIKE ? OR LOWER(title) LIKE ?", pattern, pattern)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var assets []models.Media
	if err := query.Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

// UpdateTitle sets the display title on an asset.
func (r *Repository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	return r.db.WithContext(ctx).
		Model(&models.Media{}).
		Where("id = ?", id).
		Update("title", title).Error
}

// Delete removes the metadata row, reporting whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Media{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
