package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/delarosa-dev/shopdeck-backend/internal/media"
	"github.com/delarosa-dev/shopdeck-backend/pkg/config"
	"github.com/delarosa-dev/shopdeck-backend/pkg/db"
	"github.com/delarosa-dev/shopdeck-backend/pkg/db/models"
	pkgerrors "github.com/delarosa-dev/shopdeck-backend/pkg/errors"
	"github.com/delarosa-dev/shopdeck-backend/pkg/events"
	"github.com/delarosa-dev/shopdeck-backend/pkg/logger"
	"github.com/delarosa-dev/shopdeck-backend/pkg/pagination"
)

// Service exposes product management operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, ownerID, productID uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, ownerID, productID uuid.UUID) (bool, error)
	GetByID(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, params pagination.Params) (*ProductPage, error)
	Search(ctx context.Context, query string, limit int) ([]ProductDTO, error)
	AddMedia(ctx context.Context, ownerID, productID uuid.UUID, uploads []media.UploadInput) (*ProductDTO, error)
	RemoveMedia(ctx context.Context, ownerID, productID, mediaOrRelationID uuid.UUID) (*ProductDTO, error)
	UpdateMediaRelation(ctx context.Context, ownerID, productID, mediaOrRelationID uuid.UUID, input UpdateMediaInput) (*ProductDTO, error)
}

// CreateInput holds the validated payload to create a product. When MediaPairs
// is non-empty it wins outright and Uploads is ignored.
type CreateInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Stock       int
	Categories  []string
	IsActive    bool
	Uploads     []media.UploadInput
	MediaPairs  []MediaPairInput
	ThumbnailID *uuid.UUID
}

// MediaPairInput references an already-uploaded asset with an explicit order.
type MediaPairInput struct {
	MediaID uuid.UUID
	Order   int
}

// UpdateInput holds optional mutation values for a product.
type UpdateInput struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Categories  *[]string
	IsActive    *bool
	Uploads     []media.UploadInput
	MediaEdits  []MediaEditInput
	ThumbnailID *uuid.UUID
}

// MediaEditInput adjusts one attached asset during a bulk product update.
type MediaEditInput struct {
	MediaID uuid.UUID
	Order   *int
	Title   *string
}

// UpdateMediaInput mutates a single media relation.
type UpdateMediaInput struct {
	Title *string
	Order *int
}

type mediaService interface {
	Upload(ctx context.Context, ownerID uuid.UUID, input media.UploadInput) (*media.AssetDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) (*media.AssetDTO, error)
}

type assetLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Media, error)
}

// service implements the product service.
type service struct {
	repo     *Repository
	dbClient *db.Client
	media    mediaService
	assets   assetLoader
	strategy Strategy
	bus      events.Publisher
	logg     *logger.Logger
	cap      int
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client, mediaSvc mediaService, assets assetLoader, strategy Strategy, bus events.Publisher, cfg config.MediaConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if mediaSvc == nil {
		return nil, fmt.Errorf("media service required")
	}
	if assets == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if strategy == nil {
		return nil, fmt.Errorf("search strategy required")
	}
	limit := cfg.MaxPerProduct
	if limit <= 0 {
		limit = maxMediaPerProduct
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		media:    mediaSvc,
		assets:   assets,
		strategy: strategy,
		bus:      bus,
		logg:     logg,
		cap:      limit,
	}, nil
}

// Create creates the product with its media attachments. Explicit media pairs
// take precedence over raw uploads; the thumbnail rule sorts the remaining
// relations by their prior order before reindexing them from one.
func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*ProductDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner identity required")
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	productID := uuid.New()
	var relations []models.ProductMedia
	var uploadedIDs []uuid.UUID

	if len(input.MediaPairs) > 0 {
		if err := s.checkCapacity(0, len(input.MediaPairs)); err != nil {
			return nil, err
		}
		pairs, err := s.relationsFromPairs(ctx, productID, input.MediaPairs)
		if err != nil {
			return nil, err
		}
		relations = pairs
	} else if len(input.Uploads) > 0 {
		if err := s.checkCapacity(0, len(input.Uploads)); err != nil {
			return nil, err
		}
		ids, err := s.uploadAll(ctx, ownerID, input.Uploads)
		if err != nil {
			return nil, err
		}
		uploadedIDs = ids
		relations = appendUploads(nil, productID, ids)
	}

	if input.ThumbnailID != nil {
		relations = applyThumbnailOnCreate(relations, *input.ThumbnailID)
	}

	product := &models.Product{
		ID:          productID,
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Categories:  input.Categories,
		IsActive:    input.IsActive,
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Create(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		if err := txRepo.ReplaceProductMedia(ctx, product.ID, relations); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product media")
		}
		return nil
	}); err != nil {
		s.cleanupAssets(ctx, uploadedIDs)
		return nil, err
	}

	s.publish(ctx, events.KindProductCreated, product.ID)
	return s.loadDTO(ctx, product.ID)
}

// AddMedia appends uploaded files to an existing product. Appended relations
// receive the next free order values; existing orders are left alone.
func (s *service) AddMedia(ctx context.Context, ownerID, productID uuid.UUID, uploads []media.UploadInput) (*ProductDTO, error) {
	if len(uploads) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no files provided")
	}

	product, err := s.loadOwned(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}

	current := len(product.Media)
	if current >= s.cap {
		return nil, pkgerrors.New(pkgerrors.CodeCapacity, "media limit reached").
			WithDetails(map[string]any{"limit": s.cap})
	}
	if err := s.checkCapacity(current, len(uploads)); err != nil {
		return nil, err
	}

	ids, err := s.uploadAll(ctx, ownerID, uploads)
	if err != nil {
		return nil, err
	}
	relations := appendUploads(product.Media, productID, ids)

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).ReplaceProductMedia(ctx, productID, relations); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace product media")
		}
		return nil
	}); err != nil {
		s.cleanupAssets(ctx, ids)
		return nil, err
	}

	s.publish(ctx, events.KindProductUpdated, productID)
	return s.loadDTO(ctx, productID)
}

// RemoveMedia detaches one asset from the product and deletes it. The id is
// resolved as a relation id first, then as a media id. Remaining relations
// keep their order values, gaps included.
func (s *service) RemoveMedia(ctx context.Context, ownerID, productID, mediaOrRelationID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadOwned(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}

	idx := findRelation(product.Media, mediaOrRelationID)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
	}
	mediaID := product.Media[idx].MediaID
	remaining := removeRelation(product.Media, idx)

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).ReplaceProductMedia(ctx, productID, remaining); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace product media")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.media.Delete(ctx, mediaID); err != nil {
		var coded *pkgerrors.Error
		if !errors.As(err, &coded) || coded.Code() != pkgerrors.CodeNotFound {
			return nil, err
		}
	}

	s.publish(ctx, events.KindProductUpdated, productID)
	return s.loadDTO(ctx, productID)
}

// UpdateMediaRelation changes the title or moves the relation to a new order.
// Out-of-range targets are clamped and the whole list is reindexed.
func (s *service) UpdateMediaRelation(ctx context.Context, ownerID, productID, mediaOrRelationID uuid.UUID, input UpdateMediaInput) (*ProductDTO, error) {
	product, err := s.loadOwned(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}

	idx := findRelation(product.Media, mediaOrRelationID)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
	}

	if input.Title != nil {
		if _, err := s.media.UpdateTitle(ctx, product.Media[idx].MediaID, *input.Title); err != nil {
			return nil, err
		}
	}

	if input.Order != nil {
		relations := moveRelation(product.Media, idx, *input.Order)
		if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).ReplaceProductMedia(ctx, productID, relations); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace product media")
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, events.KindProductUpdated, productID)
	return s.loadDTO(ctx, productID)
}

// Update applies a bulk product update in a fixed sequence: scalar fields,
// then uploads, then per-asset edits, then the thumbnail. Edited order values
// are taken as-is without clamping; the thumbnail rule reindexes the others
// in their current list order.
func (s *service) Update(ctx context.Context, ownerID, productID uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	product, err := s.loadOwned(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		product.Title = *input.Title
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Categories != nil {
		product.Categories = *input.Categories
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	relations := product.Media
	var uploadedIDs []uuid.UUID

	// a non-nil Uploads slice marks a file-upload payload; against a full
	// product it fails even when it carries zero files
	if input.Uploads != nil && len(relations) >= s.cap {
		return nil, pkgerrors.New(pkgerrors.CodeCapacity, "must delete media before adding").
			WithDetails(map[string]any{"limit": s.cap})
	}
	if len(input.Uploads) > 0 {
		if err := s.checkCapacity(len(relations), len(input.Uploads)); err != nil {
			return nil, err
		}
		ids, err := s.uploadAll(ctx, ownerID, input.Uploads)
		if err != nil {
			return nil, err
		}
		uploadedIDs = ids
		relations = appendUploads(relations, productID, ids)
	}

	if len(input.MediaEdits) > 0 {
		for _, edit := range input.MediaEdits {
			i := findRelation(relations, edit.MediaID)
			if i < 0 {
				continue
			}
			// a negative order is ignored rather than clamped
			if edit.Order != nil && *edit.Order >= 0 {
				relations[i].Position = *edit.Order
			}
			if edit.Title != nil {
				if _, err := s.media.UpdateTitle(ctx, relations[i].MediaID, *edit.Title); err != nil {
					s.cleanupAssets(ctx, uploadedIDs)
					return nil, err
				}
			}
		}
		relations = sortByPosition(relations)
	}

	if input.ThumbnailID != nil {
		relations = applyThumbnailOnUpdate(relations, *input.ThumbnailID)
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Update(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		if err := txRepo.ReplaceProductMedia(ctx, productID, relations); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace product media")
		}
		return nil
	}); err != nil {
		s.cleanupAssets(ctx, uploadedIDs)
		return nil, err
	}

	s.publish(ctx, events.KindProductUpdated, productID)
	return s.loadDTO(ctx, productID)
}

// Delete removes the product and best-effort removes its attached assets.
// A missing product reports deleted=false instead of an error.
func (s *service) Delete(ctx context.Context, ownerID, productID uuid.UUID) (bool, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.OwnerID != ownerID {
		return false, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another owner")
	}

	mediaIDs := make([]uuid.UUID, 0, len(product.Media))
	for _, rel := range product.Media {
		mediaIDs = append(mediaIDs, rel.MediaID)
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ReplaceProductMedia(ctx, productID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product media")
		}
		removed, err := txRepo.Delete(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
		}
		if !removed {
			return gorm.ErrRecordNotFound
		}
		return nil
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	s.cleanupAssets(ctx, mediaIDs)

	s.publish(ctx, events.KindProductDeleted, productID)
	return true, nil
}

// GetByID loads one product.
func (s *service) GetByID(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	return s.loadDTO(ctx, productID)
}

// List returns products newest first.
func (s *service) List(ctx context.Context, params pagination.Params) (*ProductPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListAfter(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	items, err := s.toDTOs(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Items: items, NextCursor: next}, nil
}

// Search filters products through the configured matching strategy against
// title and description. A blank query degrades to a plain newest-first list.
func (s *service) Search(ctx context.Context, query string, limit int) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	matched := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		if s.strategy.Matches(query, row.Title, row.Description) {
			matched = append(matched, row)
		}
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return s.toDTOs(ctx, matched)
}

func (s *service) loadOwned(ctx context.Context, ownerID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another owner")
	}
	return product, nil
}

func (s *service) checkCapacity(current, additions int) error {
	if current+additions > s.cap {
		return pkgerrors.New(pkgerrors.CodeCapacity, "too many files").
			WithDetails(map[string]any{"remaining": s.cap - current})
	}
	return nil
}

func (s *service) relationsFromPairs(ctx context.Context, productID uuid.UUID, pairs []MediaPairInput) ([]models.ProductMedia, error) {
	ids := make([]uuid.UUID, 0, len(pairs))
	for _, pair := range pairs {
		if pair.Order < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "media order cannot be negative")
		}
		ids = append(ids, pair.MediaID)
	}

	assets, err := s.assets.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load media")
	}
	known := make(map[uuid.UUID]struct{}, len(assets))
	for _, asset := range assets {
		known[asset.ID] = struct{}{}
	}

	relations := make([]models.ProductMedia, 0, len(pairs))
	for _, pair := range pairs {
		if _, ok := known[pair.MediaID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media not found").
				WithDetails(map[string]any{"media_id": pair.MediaID.String()})
		}
		relations = append(relations, models.ProductMedia{
			ID:        uuid.New(),
			ProductID: productID,
			MediaID:   pair.MediaID,
			Position:  pair.Order,
		})
	}
	return sortByPosition(relations), nil
}

func (s *service) uploadAll(ctx context.Context, ownerID uuid.UUID, uploads []media.UploadInput) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(uploads))
	for _, upload := range uploads {
		asset, err := s.media.Upload(ctx, ownerID, upload)
		if err != nil {
			s.cleanupAssets(ctx, ids)
			return nil, err
		}
		ids = append(ids, asset.ID)
	}
	return ids, nil
}

// cleanupAssets removes assets that should no longer exist; failures are
// logged and swallowed.
func (s *service) cleanupAssets(ctx context.Context, ids []uuid.UUID) {
	var errs []error
	for _, id := range ids {
		if err := s.media.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("asset %s: %w", id, err))
		}
	}
	if combined := multierr.Combine(errs...); combined != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cleanup_error", combined.Error()), "asset cleanup incomplete")
	}
}

func (s *service) loadDTO(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	assets, err := s.loadAssetMap(ctx, product.Media)
	if err != nil {
		return nil, err
	}
	return newProductDTO(product, assets), nil
}

func (s *service) toDTOs(ctx context.Context, rows []models.Product) ([]ProductDTO, error) {
	var ids []uuid.UUID
	for _, row := range rows {
		for _, rel := range row.Media {
			ids = append(ids, rel.MediaID)
		}
	}
	assets, err := s.loadAssets(ctx, ids)
	if err != nil {
		return nil, err
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *newProductDTO(&rows[i], assets))
	}
	return dtos, nil
}

func (s *service) loadAssetMap(ctx context.Context, relations []models.ProductMedia) (map[uuid.UUID]models.Media, error) {
	ids := make([]uuid.UUID, 0, len(relations))
	for _, rel := range relations {
		ids = append(ids, rel.MediaID)
	}
	return s.loadAssets(ctx, ids)
}

func (s *service) loadAssets(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Media, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.Media{}, nil
	}
	assets, err := s.assets.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load media")
	}
	out := make(map[uuid.UUID]models.Media, len(assets))
	for _, asset := range assets {
		out[asset.ID] = asset
	}
	return out, nil
}

func (s *service) publish(ctx context.Context, kind events.Kind, id uuid.UUID) {
	if s.bus != nil {
		s.bus.Publish(ctx, events.Event{Kind: kind, Payload: id})
	}
}
