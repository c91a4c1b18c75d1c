package products

import (
	"testing"

	"github.com/google/uuid"

	"github.com/delarosa-dev/shopdeck-backend/pkg/db/models"
)

func relation(mediaID uuid.UUID, position int) models.ProductMedia {
	return models.ProductMedia{
		ID:       uuid.New(),
		MediaID:  mediaID,
		Position: position,
	}
}

func positionsOf(relations []models.ProductMedia) []int {
	out := make([]int, len(relations))
	for i := range relations {
		out[i] = relations[i].Position
	}
	return out
}

func mediaOrderOf(relations []models.ProductMedia) []uuid.UUID {
	out := make([]uuid.UUID, len(relations))
	for i := range relations {
		out[i] = relations[i].MediaID
	}
	return out
}

func TestFindRelationTriesRelationIDThenMediaID(t *testing.T) {
	mediaA, mediaB := uuid.New(), uuid.New()
	relations := []models.ProductMedia{relation(mediaA, 0), relation(mediaB, 1)}

	if got := findRelation(relations, relations[1].ID); got != 1 {
		t.Fatalf("expected relation id lookup to hit index 1, got %d", got)
	}
	if got := findRelation(relations, mediaA); got != 0 {
		t.Fatalf("expected media id fallback to hit index 0, got %d", got)
	}
	if got := findRelation(relations, uuid.New()); got != -1 {
		t.Fatalf("expected miss to return -1, got %d", got)
	}
}

func TestRemoveRelationPreservesGapsAndOrder(t *testing.T) {
	mediaA, mediaB, mediaC := uuid.New(), uuid.New(), uuid.New()
	relations := []models.ProductMedia{
		relation(mediaB, 4),
		relation(mediaA, 0),
		relation(mediaC, 7),
	}

	remaining := removeRelation(relations, 1)

	if got := mediaOrderOf(remaining); len(got) != 2 || got[0] != mediaB || got[1] != mediaC {
		t.Fatalf("unexpected remaining order %v", got)
	}
	// positions keep their gaps, no reindex
	if got := positionsOf(remaining); got[0] != 4 || got[1] != 7 {
		t.Fatalf("expected gap-preserving positions [4 7], got %v", got)
	}
}

func TestApplyThumbnailOnCreateSortsByPriorPosition(t *testing.T) {
	mediaA, mediaB, mediaC := uuid.New(), uuid.New(), uuid.New()
	// list order deliberately disagrees with position order
	relations := []models.ProductMedia{
		relation(mediaC, 2),
		relation(mediaA, 0),
		relation(mediaB, 1),
	}

	result := applyThumbnailOnCreate(relations, mediaB)

	if got := mediaOrderOf(result); got[0] != mediaB || got[1] != mediaA || got[2] != mediaC {
		t.Fatalf("expected [B A C], got %v", got)
	}
	if got := positionsOf(result); got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("expected contiguous positions [0 1 2], got %v", got)
	}
}

func TestApplyThumbnailOnUpdateKeepsListOrder(t *testing.T) {
	mediaA, mediaB, mediaC := uuid.New(), uuid.New(), uuid.New()
	// same shape as the create test; the update rule must NOT pre-sort
	relations := []models.ProductMedia{
		relation(mediaC, 2),
		relation(mediaA, 0),
		relation(mediaB, 1),
	}

	result := applyThumbnailOnUpdate(relations, mediaB)

	if got := mediaOrderOf(result); got[0] != mediaB || got[1] != mediaC || got[2] != mediaA {
		t.Fatalf("expected [B C A] (current list order), got %v", got)
	}
	if got := positionsOf(result); got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("expected contiguous positions [0 1 2], got %v", got)
	}
}

func TestApplyThumbnailUnknownMediaIsNoop(t *testing.T) {
	relations := []models.ProductMedia{relation(uuid.New(), 0), relation(uuid.New(), 1)}

	if got := applyThumbnailOnCreate(relations, uuid.New()); len(got) != 2 || got[0].Position != 0 || got[1].Position != 1 {
		t.Fatalf("create rule changed list on miss: %v", positionsOf(got))
	}
	if got := applyThumbnailOnUpdate(relations, uuid.New()); len(got) != 2 || got[0].Position != 0 || got[1].Position != 1 {
		t.Fatalf("update rule changed list on miss: %v", positionsOf(got))
	}
}

func TestMoveRelationToFront(t *testing.T) {
	mediaA, mediaB, mediaC := uuid.New(), uuid.New(), uuid.New()
	relations := []models.ProductMedia{
		relation(mediaA, 0),
		relation(mediaB, 1),
		relation(mediaC, 2),
	}

	result := moveRelation(relations, 1, 0)

	if got := mediaOrderOf(result); got[0] != mediaB || got[1] != mediaA || got[2] != mediaC {
		t.Fatalf("expected [B A C], got %v", got)
	}
	if got := positionsOf(result); got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("expected contiguous positions [0 1 2], got %v", got)
	}
}

func TestMoveRelationClampsTarget(t *testing.T) {
	mediaA, mediaB, mediaC := uuid.New(), uuid.New(), uuid.New()
	relations := []models.ProductMedia{
		relation(mediaA, 0),
		relation(mediaB, 1),
		relation(mediaC, 2),
	}

	// far beyond the end clamps to the last slot
	result := moveRelation(relations, 0, 99)
	if got := mediaOrderOf(result); got[2] != mediaA {
		t.Fatalf("expected A at the end, got %v", got)
	}

	// negative clamps to the front
	result = moveRelation(relations, 2, -5)
	if got := mediaOrderOf(result); got[0] != mediaC {
		t.Fatalf("expected C at the front, got %v", got)
	}
	if got := positionsOf(result); got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("expected contiguous positions after clamp, got %v", got)
	}
}

func TestMoveRelationSortsByCurrentPositionFirst(t *testing.T) {
	mediaA, mediaB, mediaC := uuid.New(), uuid.New(), uuid.New()
	// gappy positions out of list order
	relations := []models.ProductMedia{
		relation(mediaC, 9),
		relation(mediaA, 2),
		relation(mediaB, 5),
	}

	result := moveRelation(relations, 0, 0)

	if got := mediaOrderOf(result); got[0] != mediaC || got[1] != mediaA || got[2] != mediaB {
		t.Fatalf("expected [C A B], got %v", got)
	}
	if got := positionsOf(result); got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("expected reindexed positions [0 1 2], got %v", got)
	}
}

func TestAppendUploadsDoesNotRenormalize(t *testing.T) {
	productID := uuid.New()
	existing := []models.ProductMedia{relation(uuid.New(), 5)}
	newMedia := []uuid.UUID{uuid.New(), uuid.New()}

	result := appendUploads(existing, productID, newMedia)

	if len(result) != 3 {
		t.Fatalf("expected 3 relations, got %d", len(result))
	}
	if result[0].Position != 5 {
		t.Fatalf("existing position renormalized to %d", result[0].Position)
	}
	if result[1].Position != 1 || result[2].Position != 2 {
		t.Fatalf("expected appended positions [1 2], got %v", positionsOf(result[1:]))
	}
	for _, rel := range result[1:] {
		if rel.ProductID != productID {
			t.Fatal("appended relation missing product id")
		}
	}
}
