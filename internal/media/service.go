package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/delarosa-dev/shopdeck-backend/pkg/config"
	"github.com/delarosa-dev/shopdeck-backend/pkg/db/models"
	pkgerrors "github.com/delarosa-dev/shopdeck-backend/pkg/errors"
	"github.com/delarosa-dev/shopdeck-backend/pkg/events"
	"github.com/delarosa-dev/shopdeck-backend/pkg/logger"
)

var allowedMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

// Service exposes media asset management operations.
type Service interface {
	Upload(ctx context.Context, ownerID uuid.UUID, input UploadInput) (*AssetDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*AssetDTO, error)
	List(ctx context.Context, filter ListFilter) ([]AssetDTO, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) (*AssetDTO, error)
	Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *AssetDTO, error)
}

// UploadInput is one file ready to be persisted.
type UploadInput struct {
	FileName     string
	DeclaredMime string
	SizeBytes    int64
	Data         []byte
}

// AssetDTO is the read shape returned to callers.
type AssetDTO struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	FileName     string    `json:"file_name"`
	OriginalName string    `json:"original_name"`
	Title        string    `json:"title"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}

type blobStore interface {
	Write(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo     *Repository
	blobs    blobStore
	bus      events.Publisher
	logg     *logger.Logger
	maxBytes int64
	now      func() time.Time
}

// NewService constructs a media service instance.
func NewService(repo *Repository, blobs blobStore, bus events.Publisher, cfg config.MediaConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 3 * 1024 * 1024
	}
	return &service{
		repo:     repo,
		blobs:    blobs,
		bus:      bus,
		logg:     logg,
		maxBytes: maxBytes,
		now:      time.Now,
	}, nil
}

// Upload validates, persists the blob, and records the metadata row. The blob
// is removed again if the metadata insert fails.
func (s *service) Upload(ctx context.Context, ownerID uuid.UUID, input UploadInput) (*AssetDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner identity required")
	}

	if _, ok := allowedMimeTypes[input.DeclaredMime]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported media type").
			WithDetails(map[string]any{"mime_type": input.DeclaredMime, "allowed": []string{"image/jpeg", "image/png"}})
	}

	size := input.SizeBytes
	if size <= 0 {
		size = int64(len(input.Data))
	}
	if size > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the maximum allowed size").
			WithDetails(map[string]any{"max_bytes": s.maxBytes, "size_bytes": size})
	}

	// sniff the actual content; a renamed file must not slip past the header check
	if sniffed := mimetype.Detect(input.Data); !sniffed.Is("image/jpeg") && !sniffed.Is("image/png") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported media type").
			WithDetails(map[string]any{"mime_type": sniffed.String(), "allowed": []string{"image/jpeg", "image/png"}})
	}

	storageKey := BuildStorageName(s.now(), input.FileName)
	if _, err := s.blobs.Write(ctx, storageKey, bytes.NewReader(input.Data)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage: write blob")
	}

	asset := &models.Media{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		FileName:     storageKey,
		OriginalName: input.FileName,
		MimeType:     input.DeclaredMime,
		SizeBytes:    size,
		StorageKey:   storageKey,
	}
	created, err := s.repo.Create(ctx, asset)
	if err != nil {
		if cleanupErr := s.blobs.Delete(ctx, storageKey); cleanupErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "storage_key", storageKey), "orphaned blob after failed metadata insert")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert media")
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.Event{Kind: events.KindMediaCreated, Payload: created.ID})
	}

	return newAssetDTO(created), nil
}

// Delete removes the metadata row and best-effort removes the blob.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load media")
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete media")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
	}

	if err := s.blobs.Delete(ctx, asset.StorageKey); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "storage_key", asset.StorageKey), "blob removal failed during media delete")
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.Event{Kind: events.KindMediaDeleted, Payload: id})
	}
	return nil
}

// GetByID loads one asset.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*AssetDTO, error) {
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load media")
	}
	return newAssetDTO(asset), nil
}

// List returns assets newest first.
func (s *service) List(ctx context.Context, filter ListFilter) ([]AssetDTO, error) {
	assets, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list media")
	}
	dtos := make([]AssetDTO, 0, len(assets))
	for i := range assets {
		dtos = append(dtos, *newAssetDTO(&assets[i]))
	}
	return dtos, nil
}

// UpdateTitle changes the display title and returns the refreshed asset.
func (s *service) UpdateTitle(ctx context.Context, id uuid.UUID, title string) (*AssetDTO, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load media")
	}
	if err := s.repo.UpdateTitle(ctx, id, title); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update media title")
	}
	return s.GetByID(ctx, id)
}

// Open returns a read stream over the stored blob plus the asset metadata.
func (s *service) Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *AssetDTO, error) {
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load media")
	}
	reader, err := s.blobs.Open(ctx, asset.StorageKey)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage: open blob")
	}
	return reader, newAssetDTO(asset), nil
}

func newAssetDTO(asset *models.Media) *AssetDTO {
	return &AssetDTO{
		ID:           asset.ID,
		OwnerID:      asset.OwnerID,
		FileName:     asset.FileName,
		OriginalName: asset.OriginalName,
		Title:        asset.Title,
		MimeType:     asset.MimeType,
		SizeBytes:    asset.SizeBytes,
		CreatedAt:    asset.CreatedAt,
	}
}
