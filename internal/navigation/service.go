package navigation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/delarosa-dev/shopdeck-backend/pkg/db"
	"github.com/delarosa-dev/shopdeck-backend/pkg/db/models"
	pkgerrors "github.com/delarosa-dev/shopdeck-backend/pkg/errors"
	"github.com/delarosa-dev/shopdeck-backend/pkg/events"
)

// Service exposes navigation tree operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*NodeDTO, error)
	Update(ctx context.Context, ownerID, itemID uuid.UUID, input UpdateInput) (*NodeDTO, error)
	Move(ctx context.Context, ownerID, itemID uuid.UUID, target int) ([]NodeDTO, error)
	Delete(ctx context.Context, ownerID, itemID uuid.UUID) (bool, error)
	Tree(ctx context.Context) ([]NodeDTO, error)
}

// CreateInput holds the payload for a new navigation entry. New entries are
// appended at the end of their sibling list.
type CreateInput struct {
	Label    string
	URL      string
	PageID   *uuid.UUID
	ParentID *uuid.UUID
}

// UpdateInput holds optional mutation values for an entry.
type UpdateInput struct {
	Label  *string
	URL    *string
	PageID *uuid.UUID
}

// NodeDTO is one navigation entry with its nested children.
type NodeDTO struct {
	ID        uuid.UUID  `json:"id"`
	Label     string     `json:"label"`
	URL       string     `json:"url,omitempty"`
	PageID    *uuid.UUID `json:"page_id,omitempty"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Position  int        `json:"position"`
	Children  []NodeDTO  `json:"children"`
	CreatedAt time.Time  `json:"created_at"`
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	bus      events.Publisher
}

// NewService constructs a navigation service instance.
func NewService(repo *Repository, dbClient *db.Client, bus events.Publisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("navigation repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient, bus: bus}, nil
}

// Create appends a new entry at the end of its sibling list.
func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*NodeDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner identity required")
	}
	if strings.TrimSpace(input.Label) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "label is required")
	}
	if input.ParentID != nil {
		if _, err := s.repo.FindByID(ctx, *input.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "parent entry not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent entry")
		}
	}

	siblings, err := s.repo.ListSiblings(ctx, input.ParentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list siblings")
	}

	item := &models.NavItem{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Label:    input.Label,
		URL:      input.URL,
		PageID:   input.PageID,
		ParentID: input.ParentID,
		Position: len(siblings),
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert nav entry")
	}

	s.publish(ctx)
	return newNodeDTO(created), nil
}

// Update merges the provided fields into the entry.
func (s *service) Update(ctx context.Context, ownerID, itemID uuid.UUID, input UpdateInput) (*NodeDTO, error) {
	item, err := s.loadOwned(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}

	if input.Label != nil {
		if strings.TrimSpace(*input.Label) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "label cannot be blank")
		}
		item.Label = *input.Label
	}
	if input.URL != nil {
		item.URL = *input.URL
	}
	if input.PageID != nil {
		item.PageID = input.PageID
	}

	updated, err := s.repo.Save(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update nav entry")
	}

	s.publish(ctx)
	return newNodeDTO(updated), nil
}

// Move reorders the entry within its sibling list. The target index is
// clamped and the siblings are reindexed contiguously.
func (s *service) Move(ctx context.Context, ownerID, itemID uuid.UUID, target int) ([]NodeDTO, error) {
	item, err := s.loadOwned(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}

	siblings, err := s.repo.ListSiblings(ctx, item.ParentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list siblings")
	}

	reordered := moveSibling(siblings, itemID, target)

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdatePositions(ctx, reordered); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update nav positions")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.publish(ctx)
	out := make([]NodeDTO, 0, len(reordered))
	for i := range reordered {
		out = append(out, *newNodeDTO(&reordered[i]))
	}
	return out, nil
}

// Delete removes the entry and its descendants, then closes the position gap
// among the remaining siblings. A missing entry reports deleted=false.
func (s *service) Delete(ctx context.Context, ownerID, itemID uuid.UUID) (bool, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load nav entry")
	}
	if item.OwnerID != ownerID {
		return false, pkgerrors.New(pkgerrors.CodeForbidden, "entry belongs to another owner")
	}

	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list nav entries")
	}
	doomed := collectSubtree(all, itemID)

	siblings, err := s.repo.ListSiblings(ctx, item.ParentID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list siblings")
	}
	remaining := make([]models.NavItem, 0, len(siblings))
	for _, sibling := range siblings {
		if sibling.ID != itemID {
			remaining = append(remaining, sibling)
		}
	}
	for i := range remaining {
		remaining[i].Position = i
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.DeleteByIDs(ctx, doomed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete nav entries")
		}
		if err := txRepo.UpdatePositions(ctx, remaining); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update nav positions")
		}
		return nil
	}); err != nil {
		return false, err
	}

	s.publish(ctx)
	return true, nil
}

// Tree returns the full navigation tree, siblings ordered by position.
func (s *service) Tree(ctx context.Context) ([]NodeDTO, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list nav entries")
	}
	return buildTree(all), nil
}

// moveSibling relocates the entry inside its position-ordered sibling list
// and reindexes the whole list.
func moveSibling(siblings []models.NavItem, itemID uuid.UUID, target int) []models.NavItem {
	sorted := make([]models.NavItem, len(siblings))
	copy(sorted, siblings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	idx := -1
	for i := range sorted {
		if sorted[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return sorted
	}

	if target < 0 {
		target = 0
	}
	if max := len(sorted) - 1; target > max {
		target = max
	}

	moved := sorted[idx]
	rest := append(sorted[:idx:idx], sorted[idx+1:]...)
	out := make([]models.NavItem, 0, len(sorted))
	out = append(out, rest[:target]...)
	out = append(out, moved)
	out = append(out, rest[target:]...)
	for i := range out {
		out[i].Position = i
	}
	return out
}

// collectSubtree returns the ids of the entry and every descendant.
func collectSubtree(all []models.NavItem, rootID uuid.UUID) []uuid.UUID {
	children := make(map[uuid.UUID][]uuid.UUID, len(all))
	for _, item := range all {
		if item.ParentID != nil {
			children[*item.ParentID] = append(children[*item.ParentID], item.ID)
		}
	}

	var out []uuid.UUID
	queue := []uuid.UUID{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		queue = append(queue, children[id]...)
	}
	return out
}

func buildTree(all []models.NavItem) []NodeDTO {
	byParent := make(map[uuid.UUID][]models.NavItem)
	var roots []models.NavItem
	for _, item := range all {
		if item.ParentID == nil {
			roots = append(roots, item)
		} else {
			byParent[*item.ParentID] = append(byParent[*item.ParentID], item)
		}
	}

	var assemble func(items []models.NavItem) []NodeDTO
	assemble = func(items []models.NavItem) []NodeDTO {
		nodes := make([]NodeDTO, 0, len(items))
		for i := range items {
			node := newNodeDTO(&items[i])
			node.Children = assemble(byParent[items[i].ID])
			nodes = append(nodes, *node)
		}
		return nodes
	}
	return assemble(roots)
}

func (s *service) loadOwned(ctx context.Context, ownerID, itemID uuid.UUID) (*models.NavItem, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "nav entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load nav entry")
	}
	if item.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "entry belongs to another owner")
	}
	return item, nil
}

func (s *service) publish(ctx context.Context) {
	if s.bus != nil {
		s.bus.Publish(ctx, events.Event{Kind: events.KindNavChanged})
	}
}

func newNodeDTO(item *models.NavItem) *NodeDTO {
	return &NodeDTO{
		ID:        item.ID,
		Label:     item.Label,
		URL:       item.URL,
		PageID:    item.PageID,
		ParentID:  item.ParentID,
		Position:  item.Position,
		Children:  []NodeDTO{},
		CreatedAt: item.CreatedAt,
	}
}
