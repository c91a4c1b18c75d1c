package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/delarosa-dev/shopdeck-backend/pkg/db/models"
)

// ProductDTO is the read shape returned to callers.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Categories  []string        `json:"categories"`
	IsActive    bool            `json:"is_active"`
	Media       []MediaEntryDTO `json:"media"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductPage is one cursor page of the newest-first catalog listing.
type ProductPage struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// MediaEntryDTO is one media relation on a product, position zero being the
// thumbnail. Asset fields are populated when the metadata row is available.
type MediaEntryDTO struct {
	RelationID   uuid.UUID `json:"relation_id"`
	MediaID      uuid.UUID `json:"media_id"`
	Position     int       `json:"position"`
	Title        string    `json:"title,omitempty"`
	OriginalName string    `json:"original_name,omitempty"`
	MimeType     string    `json:"mime_type,omitempty"`
	SizeBytes    int64     `json:"size_bytes,omitempty"`
}

func newProductDTO(product *models.Product, assets map[uuid.UUID]models.Media) *ProductDTO {
	dto := &ProductDTO{
		ID:          product.ID,
		OwnerID:     product.OwnerID,
		Title:       product.Title,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		Categories:  product.Categories,
		IsActive:    product.IsActive,
		Media:       make([]MediaEntryDTO, 0, len(product.Media)),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	for _, rel := range product.Media {
		entry := MediaEntryDTO{
			RelationID: rel.ID,
			MediaID:    rel.MediaID,
			Position:   rel.Position,
		}
		if asset, ok := assets[rel.MediaID]; ok {
			entry.Title = asset.Title
			entry.OriginalName = asset.OriginalName
			entry.MimeType = asset.MimeType
			entry.SizeBytes = asset.SizeBytes
		}
		dto.Media = append(dto.Media, entry)
	}
	return dto
}
