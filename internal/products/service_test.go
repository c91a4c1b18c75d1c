package products

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/delarosa-dev/shopdeck-backend/internal/media"
	"github.com/delarosa-dev/shopdeck-backend/pkg/config"
	"github.com/delarosa-dev/shopdeck-backend/pkg/db"
	"github.com/delarosa-dev/shopdeck-backend/pkg/db/models"
	pkgerrors "github.com/delarosa-dev/shopdeck-backend/pkg/errors"
	"github.com/delarosa-dev/shopdeck-backend/pkg/events"
)

type fakeMediaStore struct {
	mu        sync.Mutex
	assets    map[uuid.UUID]models.Media
	deleted   []uuid.UUID
	uploads   int
	deleteErr map[uuid.UUID]error
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{
		assets:    map[uuid.UUID]models.Media{},
		deleteErr: map[uuid.UUID]error{},
	}
}

func (f *fakeMediaStore) seed(name string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.assets[id] = models.Media{ID: id, OriginalName: name, MimeType: "image/png"}
	return id
}

func (f *fakeMediaStore) Upload(_ context.Context, ownerID uuid.UUID, input media.UploadInput) (*media.AssetDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	id := uuid.New()
	f.assets[id] = models.Media{ID: id, OwnerID: ownerID, OriginalName: input.FileName, MimeType: input.DeclaredMime}
	return &media.AssetDTO{ID: id, OwnerID: ownerID, OriginalName: input.FileName}, nil
}

func (f *fakeMediaStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.deleteErr[id]; ok {
		return err
	}
	if _, ok := f.assets[id]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
	}
	delete(f.assets, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeMediaStore) UpdateTitle(_ context.Context, id uuid.UUID, title string) (*media.AssetDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	asset, ok := f.assets[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
	}
	asset.Title = title
	f.assets[id] = asset
	return &media.AssetDTO{ID: id, Title: title}, nil
}

func (f *fakeMediaStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Media
	for _, id := range ids {
		if asset, ok := f.assets[id]; ok {
			out = append(out, asset)
		}
	}
	return out, nil
}

type recordingBus struct {
	mu    sync.Mutex
	kinds []events.Kind
}

func (r *recordingBus) Publish(_ context.Context, evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, evt.Kind)
}

func (r *recordingBus) has(kind events.Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T) (Service, *fakeMediaStore, *recordingBus) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	client, err := db.New(context.Background(), config.DBConfig{DSN: dsn, Driver: config.DBDriverSQLite}, nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.DB().AutoMigrate(&models.Product{}, &models.ProductMedia{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	fake := newFakeMediaStore()
	bus := &recordingBus{}
	svc, err := NewService(NewRepository(client.DB()), client, fake, fake, substringStrategy{}, bus, config.MediaConfig{MaxPerProduct: 3}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, fake, bus
}

func pngUpload(name string) media.UploadInput {
	return media.UploadInput{FileName: name, DeclaredMime: "image/png", SizeBytes: 4, Data: []byte{0x89, 'P', 'N', 'G'}}
}

func createBasicProduct(t *testing.T, svc Service, ownerID uuid.UUID, uploads ...media.UploadInput) *ProductDTO {
	t.Helper()
	dto, err := svc.Create(context.Background(), ownerID, CreateInput{
		Title:    "Desk Lamp",
		Price:    decimal.NewFromInt(25),
		IsActive: true,
		Uploads:  uploads,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return dto
}

func assertPositions(t *testing.T, entries []MediaEntryDTO, want ...int) {
	t.Helper()
	if len(entries) != len(want) {
		t.Fatalf("expected %d media entries, got %d", len(want), len(entries))
	}
	for i, pos := range want {
		if entries[i].Position != pos {
			t.Fatalf("entry %d: expected position %d, got %d", i, pos, entries[i].Position)
		}
	}
}

func TestCreateAssignsSequentialPositionsToUploads(t *testing.T) {
	svc, _, bus := newTestService(t)
	ownerID := uuid.New()

	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"), pngUpload("b.png"))

	assertPositions(t, dto.Media, 0, 1)
	if dto.Media[0].OriginalName != "a.png" || dto.Media[1].OriginalName != "b.png" {
		t.Fatalf("expected asset metadata on entries, got %+v", dto.Media)
	}
	if !bus.has(events.KindProductCreated) {
		t.Fatal("expected product created event")
	}
}

func TestCreateExplicitPairsIgnoreUploads(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ownerID := uuid.New()
	mediaA, mediaB := fake.seed("a.png"), fake.seed("b.png")

	dto, err := svc.Create(context.Background(), ownerID, CreateInput{
		Title:   "Desk Lamp",
		Price:   decimal.NewFromInt(25),
		Uploads: []media.UploadInput{pngUpload("ignored.png")},
		MediaPairs: []MediaPairInput{
			{MediaID: mediaB, Order: 1},
			{MediaID: mediaA, Order: 0},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if fake.uploads != 0 {
		t.Fatalf("uploads must be ignored when pairs are present, saw %d", fake.uploads)
	}
	assertPositions(t, dto.Media, 0, 1)
	if dto.Media[0].MediaID != mediaA || dto.Media[1].MediaID != mediaB {
		t.Fatalf("unexpected pair ordering: %+v", dto.Media)
	}
}

func TestCreateThumbnailSortsRestByPriorOrder(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ownerID := uuid.New()
	mediaA, mediaB, mediaC := fake.seed("a.png"), fake.seed("b.png"), fake.seed("c.png")

	thumb := mediaC
	dto, err := svc.Create(context.Background(), ownerID, CreateInput{
		Title: "Desk Lamp",
		Price: decimal.NewFromInt(25),
		MediaPairs: []MediaPairInput{
			{MediaID: mediaA, Order: 0},
			{MediaID: mediaB, Order: 1},
			{MediaID: mediaC, Order: 2},
		},
		ThumbnailID: &thumb,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	assertPositions(t, dto.Media, 0, 1, 2)
	if dto.Media[0].MediaID != mediaC || dto.Media[1].MediaID != mediaA || dto.Media[2].MediaID != mediaB {
		t.Fatalf("expected [C A B], got %+v", dto.Media)
	}
}

func TestCreateRejectsTooManyFiles(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Title:   "Desk Lamp",
		Price:   decimal.NewFromInt(25),
		Uploads: []media.UploadInput{pngUpload("1.png"), pngUpload("2.png"), pngUpload("3.png"), pngUpload("4.png")},
	})

	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeCapacity {
		t.Fatalf("expected capacity error, got %v", err)
	}
	details, _ := coded.Details().(map[string]any)
	if details["remaining"] != 3 {
		t.Fatalf("expected remaining 3, got %v", details["remaining"])
	}
}

func TestCreateUnknownPairMedia(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Title:      "Desk Lamp",
		Price:      decimal.NewFromInt(25),
		MediaPairs: []MediaPairInput{{MediaID: uuid.New(), Order: 0}},
	})

	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddMediaAppendsWithoutRenumbering(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"))

	updated, err := svc.AddMedia(context.Background(), ownerID, dto.ID, []media.UploadInput{pngUpload("b.png"), pngUpload("c.png")})
	if err != nil {
		t.Fatalf("add media: %v", err)
	}

	assertPositions(t, updated.Media, 0, 1, 2)
}

func TestAddMediaAtCapReportsLimitReached(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"), pngUpload("b.png"), pngUpload("c.png"))

	_, err := svc.AddMedia(context.Background(), ownerID, dto.ID, []media.UploadInput{pngUpload("d.png")})

	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeCapacity {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if coded.Message() != "media limit reached" {
		t.Fatalf("unexpected message %q", coded.Message())
	}
}

func TestAddMediaOverCapReportsRemaining(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"), pngUpload("b.png"))

	_, err := svc.AddMedia(context.Background(), ownerID, dto.ID, []media.UploadInput{pngUpload("c.png"), pngUpload("d.png")})

	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeCapacity {
		t.Fatalf("expected capacity error, got %v", err)
	}
	details, _ := coded.Details().(map[string]any)
	if details["remaining"] != 1 {
		t.Fatalf("expected remaining 1, got %v", details["remaining"])
	}
}

func TestRemoveMediaPreservesGapsAndDeletesAsset(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"), pngUpload("b.png"), pngUpload("c.png"))
	middle := dto.Media[1].MediaID

	updated, err := svc.RemoveMedia(context.Background(), ownerID, dto.ID, middle)
	if err != nil {
		t.Fatalf("remove media: %v", err)
	}

	// positions 0 and 2 survive untouched
	assertPositions(t, updated.Media, 0, 2)
	found := false
	for _, id := range fake.deleted {
		if id == middle {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the detached asset to be deleted")
	}
}

func TestRemoveMediaResolvesRelationID(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"), pngUpload("b.png"))

	updated, err := svc.RemoveMedia(context.Background(), ownerID, dto.ID, dto.Media[0].RelationID)
	if err != nil {
		t.Fatalf("remove media by relation id: %v", err)
	}
	if len(updated.Media) != 1 || updated.Media[0].OriginalName != "b.png" {
		t.Fatalf("unexpected remaining media %+v", updated.Media)
	}
}

func TestRemoveMediaUnknownID(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"))

	_, err := svc.RemoveMedia(context.Background(), ownerID, dto.ID, uuid.New())
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateMediaRelationMoveToFront(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"), pngUpload("b.png"), pngUpload("c.png"))
	mediaA, mediaB, mediaC := dto.Media[0].MediaID, dto.Media[1].MediaID, dto.Media[2].MediaID

	target := 0
	updated, err := svc.UpdateMediaRelation(context.Background(), ownerID, dto.ID, mediaB, UpdateMediaInput{Order: &target})
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	assertPositions(t, updated.Media, 0, 1, 2)
	if updated.Media[0].MediaID != mediaB || updated.Media[1].MediaID != mediaA || updated.Media[2].MediaID != mediaC {
		t.Fatalf("expected [B A C], got %+v", updated.Media)
	}
}

func TestUpdateMediaRelationClampsTarget(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"), pngUpload("b.png"))
	mediaA := dto.Media[0].MediaID

	target := 99
	updated, err := svc.UpdateMediaRelation(context.Background(), ownerID, dto.ID, mediaA, UpdateMediaInput{Order: &target})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if updated.Media[1].MediaID != mediaA {
		t.Fatalf("expected A moved to the end, got %+v", updated.Media)
	}
	assertPositions(t, updated.Media, 0, 1)
}

func TestUpdateMediaRelationTitle(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"))

	title := "hero shot"
	if _, err := svc.UpdateMediaRelation(context.Background(), ownerID, dto.ID, dto.Media[0].MediaID, UpdateMediaInput{Title: &title}); err != nil {
		t.Fatalf("title update: %v", err)
	}
	if fake.assets[dto.Media[0].MediaID].Title != "hero shot" {
		t.Fatal("expected asset title to change")
	}
}

func TestUpdateMergesScalarsAndSetsOrderDirectly(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"), pngUpload("b.png"), pngUpload("c.png"))
	mediaA := dto.Media[0].MediaID

	title := "Floor Lamp"
	order := 5
	updated, err := svc.Update(context.Background(), ownerID, dto.ID, UpdateInput{
		Title:      &title,
		MediaEdits: []MediaEditInput{{MediaID: mediaA, Order: &order}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Title != "Floor Lamp" {
		t.Fatalf("scalar merge failed, title %q", updated.Title)
	}
	// the edited value is stored verbatim; the rest keep their positions
	assertPositions(t, updated.Media, 1, 2, 5)
	if updated.Media[2].MediaID != mediaA {
		t.Fatalf("expected A sorted to the back, got %+v", updated.Media)
	}
}

func TestUpdateIgnoresNegativeOrderEdit(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"), pngUpload("b.png"))
	mediaB := dto.Media[1].MediaID

	order := -4
	updated, err := svc.Update(context.Background(), ownerID, dto.ID, UpdateInput{
		MediaEdits: []MediaEditInput{{MediaID: mediaB, Order: &order}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	assertPositions(t, updated.Media, 0, 1)
	if updated.Media[1].MediaID != mediaB {
		t.Fatalf("expected B untouched at the back, got %+v", updated.Media)
	}
}

func TestUpdateThumbnailUsesCurrentListOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"), pngUpload("b.png"), pngUpload("c.png"))
	mediaA, mediaB, mediaC := dto.Media[0].MediaID, dto.Media[1].MediaID, dto.Media[2].MediaID

	thumb := mediaC
	updated, err := svc.Update(context.Background(), ownerID, dto.ID, UpdateInput{ThumbnailID: &thumb})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	assertPositions(t, updated.Media, 0, 1, 2)
	if updated.Media[0].MediaID != mediaC || updated.Media[1].MediaID != mediaA || updated.Media[2].MediaID != mediaB {
		t.Fatalf("expected [C A B], got %+v", updated.Media)
	}
}

func TestUpdateUploadsRejectedWhenFull(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"), pngUpload("b.png"), pngUpload("c.png"))

	_, err := svc.Update(context.Background(), ownerID, dto.ID, UpdateInput{
		Uploads: []media.UploadInput{pngUpload("d.png")},
	})

	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeCapacity {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if coded.Message() != "must delete media before adding" {
		t.Fatalf("unexpected message %q", coded.Message())
	}
}

func TestUpdateEmptyUploadFormRejectedWhenFull(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"), pngUpload("b.png"), pngUpload("c.png"))

	// a multipart request with no file parts still decodes to an empty,
	// non-nil slice and must hit the same gate
	_, err := svc.Update(context.Background(), ownerID, dto.ID, UpdateInput{
		Uploads: []media.UploadInput{},
	})

	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeCapacity {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if coded.Message() != "must delete media before adding" {
		t.Fatalf("unexpected message %q", coded.Message())
	}

	// a scalar-only update leaves Uploads nil and stays allowed at the cap
	title := "renamed"
	updated, err := svc.Update(context.Background(), ownerID, dto.ID, UpdateInput{Title: &title})
	if err != nil {
		t.Fatalf("scalar update at cap: %v", err)
	}
	if updated.Title != "renamed" {
		t.Fatalf("unexpected title %q", updated.Title)
	}
}

func TestDeleteCascadesAssetsBestEffort(t *testing.T) {
	svc, fake, bus := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"), pngUpload("b.png"))
	fake.deleteErr[dto.Media[0].MediaID] = fmt.Errorf("storage offline")

	deleted, err := svc.Delete(context.Background(), ownerID, dto.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected deleted=true")
	}

	// the failing asset is swallowed, the other one is removed
	if len(fake.deleted) != 1 || fake.deleted[0] != dto.Media[1].MediaID {
		t.Fatalf("unexpected asset deletions %v", fake.deleted)
	}
	if !bus.has(events.KindProductDeleted) {
		t.Fatal("expected product deleted event")
	}

	if _, err := svc.GetByID(context.Background(), dto.ID); pkgerrors.As(err) == nil {
		t.Fatal("expected product to be gone")
	}
}

func TestDeleteMissingProductReportsFalse(t *testing.T) {
	svc, _, _ := newTestService(t)

	deleted, err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if deleted {
		t.Fatal("expected deleted=false")
	}
}

func TestMutationsRejectForeignOwner(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()
	dto := createBasicProduct(t, svc, ownerID, pngUpload("a.png"))

	title := "hijacked"
	_, err := svc.Update(context.Background(), uuid.New(), dto.ID, UpdateInput{Title: &title})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSearchMatchesTitleAndDescription(t *testing.T) {
	svc, _, _ := newTestService(t)
	ownerID := uuid.New()

	for _, item := range []struct{ title, desc string }{
		{"Desk Lamp", "warm light for late nights"},
		{"Office Chair", "ergonomic mesh back"},
		{"Bookshelf", "a lamp-adjacent furniture piece"},
		{"Standing Desk", "motorized height adjustment"},
		{"Monitor Arm", "dual screen mount"},
	} {
		if _, err := svc.Create(context.Background(), ownerID, CreateInput{Title: item.title, Description: item.desc, Price: decimal.NewFromInt(10)}); err != nil {
			t.Fatalf("create: %v", err)
		}
		// keep created_at strictly increasing so newest-first is deterministic
		time.Sleep(2 * time.Millisecond)
	}

	results, err := svc.Search(context.Background(), "lamp", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}

	all, err := svc.Search(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("search blank: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("blank query must return everything, got %d", len(all))
	}

	capped, err := svc.Search(context.Background(), "", 2)
	if err != nil {
		t.Fatalf("search capped: %v", err)
	}
	if len(capped) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(capped))
	}
	// the capped blank query is the two newest products, newest first
	if capped[0].Title != "Monitor Arm" || capped[1].Title != "Standing Desk" {
		t.Fatalf("expected the newest products first, got [%q, %q]", capped[0].Title, capped[1].Title)
	}
}
