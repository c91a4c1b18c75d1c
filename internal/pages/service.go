package pages

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/delarosa-dev/shopdeck-backend/pkg/db"
	"github.com/delarosa-dev/shopdeck-backend/pkg/db/models"
	pkgerrors "github.com/delarosa-dev/shopdeck-backend/pkg/errors"
	"github.com/delarosa-dev/shopdeck-backend/pkg/events"
)

// Service exposes page management operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*PageDTO, error)
	Update(ctx context.Context, ownerID, pageID uuid.UUID, input UpdateInput) (*PageDTO, error)
	Delete(ctx context.Context, ownerID, pageID uuid.UUID) (bool, error)
	GetByID(ctx context.Context, pageID uuid.UUID) (*PageDTO, error)
	GetBySlug(ctx context.Context, slug string) (*PageDTO, error)
	List(ctx context.Context, publishedOnly bool, limit int) ([]PageDTO, error)
}

// CreateInput holds the validated payload to create a page. A blank slug is
// derived from the title.
type CreateInput struct {
	Slug      string
	Title     string
	Body      string
	Published bool
}

// UpdateInput holds optional mutation values for a page.
type UpdateInput struct {
	Slug      *string
	Title     *string
	Body      *string
	Published *bool
}

// PageDTO is the read shape returned to callers.
type PageDTO struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type service struct {
	repo *Repository
	bus  events.Publisher
}

// NewService constructs a page service instance.
func NewService(repo *Repository, bus events.Publisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("page repository required")
	}
	return &service{repo: repo, bus: bus}, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9-]+`)

// Slugify lowercases the input, converts whitespace runs to hyphens, and
// drops everything outside [a-z0-9-].
func Slugify(value string) string {
	slug := strings.ToLower(strings.TrimSpace(value))
	slug = strings.Join(strings.Fields(slug), "-")
	slug = slugStrip.ReplaceAllString(slug, "")
	return strings.Trim(slug, "-")
}

// Create inserts a new page; the slug has to be unique across all pages.
func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*PageDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner identity required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(input.Title)
	}
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}

	page := &models.Page{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Slug:      slug,
		Title:     input.Title,
		Body:      input.Body,
		Published: input.Published,
	}
	created, err := s.repo.Create(ctx, page)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use").
				WithDetails(map[string]any{"slug": slug})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert page")
	}

	s.publish(ctx, events.KindPageCreated, created.ID)
	return newPageDTO(created), nil
}

// Update merges the provided fields into the page.
func (s *service) Update(ctx context.Context, ownerID, pageID uuid.UUID, input UpdateInput) (*PageDTO, error) {
	page, err := s.loadOwned(ctx, ownerID, pageID)
	if err != nil {
		return nil, err
	}

	if input.Slug != nil {
		slug := Slugify(*input.Slug)
		if slug == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug cannot be blank")
		}
		page.Slug = slug
	}
	if input.Title != nil {
		page.Title = *input.Title
	}
	if input.Body != nil {
		page.Body = *input.Body
	}
	if input.Published != nil {
		page.Published = *input.Published
	}

	updated, err := s.repo.Update(ctx, page)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use").
				WithDetails(map[string]any{"slug": page.Slug})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update page")
	}

	s.publish(ctx, events.KindPageUpdated, pageID)
	return newPageDTO(updated), nil
}

// Delete removes the page. A missing page reports deleted=false.
func (s *service) Delete(ctx context.Context, ownerID, pageID uuid.UUID) (bool, error) {
	page, err := s.repo.FindByID(ctx, pageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load page")
	}
	if page.OwnerID != ownerID {
		return false, pkgerrors.New(pkgerrors.CodeForbidden, "page belongs to another owner")
	}

	removed, err := s.repo.Delete(ctx, pageID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete page")
	}
	if removed {
		s.publish(ctx, events.KindPageDeleted, pageID)
	}
	return removed, nil
}

// GetByID loads one page.
func (s *service) GetByID(ctx context.Context, pageID uuid.UUID) (*PageDTO, error) {
	page, err := s.repo.FindByID(ctx, pageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "page not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load page")
	}
	return newPageDTO(page), nil
}

// GetBySlug loads one page by its slug.
func (s *service) GetBySlug(ctx context.Context, slug string) (*PageDTO, error) {
	page, err := s.repo.FindBySlug(ctx, Slugify(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "page not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load page")
	}
	return newPageDTO(page), nil
}

// List returns pages newest first.
func (s *service) List(ctx context.Context, publishedOnly bool, limit int) ([]PageDTO, error) {
	rows, err := s.repo.List(ctx, publishedOnly, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pages")
	}
	dtos := make([]PageDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *newPageDTO(&rows[i]))
	}
	return dtos, nil
}

func (s *service) loadOwned(ctx context.Context, ownerID, pageID uuid.UUID) (*models.Page, error) {
	page, err := s.repo.FindByID(ctx, pageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "page not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load page")
	}
	if page.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "page belongs to another owner")
	}
	return page, nil
}

func (s *service) publish(ctx context.Context, kind events.Kind, id uuid.UUID) {
	if s.bus != nil {
		s.bus.Publish(ctx, events.Event{Kind: kind, Payload: id})
	}
}

func newPageDTO(page *models.Page) *PageDTO {
	return &PageDTO{
		ID:        page.ID,
		OwnerID:   page.OwnerID,
		Slug:      page.Slug,
		Title:     page.Title,
		Body:      page.Body,
		Published: page.Published,
		CreatedAt: page.CreatedAt,
		UpdatedAt: page.UpdatedAt,
	}
}
