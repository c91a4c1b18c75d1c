package products

import (
	"sort"

	"github.com/google/uuid"

	"github.com/delarosa-dev/shopdeck-backend/pkg/db/models"
)

// maxMediaPerProduct is the hard cap on relations held by one product.
const maxMediaPerProduct = 3

// findRelation locates a relation by its own id first, falling back to the
// referenced media id. Returns the index in the slice, or -1.
func findRelation(relations []models.ProductMedia, id uuid.UUID) int {
	for i := range relations {
		if relations[i].ID == id {
			return i
		}
	}
	for i := range relations {
		if relations[i].MediaID == id {
			return i
		}
	}
	return -1
}

// sortByPosition stable-sorts relations ascending by their position values.
// Positions themselves are untouched, so gaps survive.
func sortByPosition(relations []models.ProductMedia) []models.ProductMedia {
	out := make([]models.ProductMedia, len(relations))
	copy(out, relations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

// removeRelation drops the relation at index and returns the remainder
// stable-sorted by existing position, gaps preserved.
func removeRelation(relations []models.ProductMedia, index int) []models.ProductMedia {
	remaining := make([]models.ProductMedia, 0, len(relations)-1)
	for i := range relations {
		if i == index {
			continue
		}
		remaining = append(remaining, relations[i])
	}
	return sortByPosition(remaining)
}

// applyThumbnailOnCreate moves the relation referencing mediaID to position 0.
// The remaining relations are sorted by their prior position values and then
// reindexed from 1. A mediaID that matches nothing leaves the list unchanged.
func applyThumbnailOnCreate(relations []models.ProductMedia, mediaID uuid.UUID) []models.ProductMedia {
	thumbIdx := -1
	for i := range relations {
		if relations[i].MediaID == mediaID {
			thumbIdx = i
			break
		}
	}
	if thumbIdx < 0 {
		return relations
	}

	thumb := relations[thumbIdx]
	rest := make([]models.ProductMedia, 0, len(relations)-1)
	for i := range relations {
		if i != thumbIdx {
			rest = append(rest, relations[i])
		}
	}
	rest = sortByPosition(rest)

	thumb.Position = 0
	out := make([]models.ProductMedia, 0, len(relations))
	out = append(out, thumb)
	for i := range rest {
		rest[i].Position = i + 1
		out = append(out, rest[i])
	}
	return out
}

// applyThumbnailOnUpdate moves the relation referencing mediaID to position 0
// and reindexes the others in their current list order, without the pre-sort
// the create-time rule performs.
func applyThumbnailOnUpdate(relations []models.ProductMedia, mediaID uuid.UUID) []models.ProductMedia {
	thumbIdx := -1
	for i := range relations {
		if relations[i].MediaID == mediaID {
			thumbIdx = i
			break
		}
	}
	if thumbIdx < 0 {
		return relations
	}

	thumb := relations[thumbIdx]
	thumb.Position = 0
	out := make([]models.ProductMedia, 0, len(relations))
	out = append(out, thumb)
	next := 1
	for i := range relations {
		if i == thumbIdx {
			continue
		}
		rel := relations[i]
		rel.Position = next
		next++
		out = append(out, rel)
	}
	return out
}

// moveRelation relocates the relation at index to the clamped target position.
// The list is ordered by current position, the relation is removed and
// reinserted at the target index, and the whole list is reindexed 0..n-1.
func moveRelation(relations []models.ProductMedia, index, target int) []models.ProductMedia {
	if index < 0 || index >= len(relations) {
		return relations
	}

	if target < 0 {
		target = 0
	}
	if max := len(relations) - 1; target > max {
		target = max
	}

	moved := relations[index]
	sorted := sortByPosition(relations)

	sortedIdx := 0
	for i := range sorted {
		if sorted[i].ID == moved.ID {
			sortedIdx = i
			break
		}
	}

	sequence := append(sorted[:sortedIdx:sortedIdx], sorted[sortedIdx+1:]...)
	out := make([]models.ProductMedia, 0, len(relations))
	out = append(out, sequence[:target]...)
	out = append(out, moved)
	out = append(out, sequence[target:]...)

	for i := range out {
		out[i].Position = i
	}
	return out
}

// appendUploads assigns appended positions current_count..current_count+n-1
// to freshly created relations, leaving existing positions untouched.
func appendUploads(relations []models.ProductMedia, productID uuid.UUID, mediaIDs []uuid.UUID) []models.ProductMedia {
	base := len(relations)
	out := make([]models.ProductMedia, 0, base+len(mediaIDs))
	out = append(out, relations...)
	for i, mediaID := range mediaIDs {
		out = append(out, models.ProductMedia{
			ID:        uuid.New(),
			ProductID: productID,
			MediaID:   mediaID,
			Position:  base + i,
		})
	}
	return out
}
