package pages

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/delarosa-dev/shopdeck-backend/pkg/config"
	"github.com/delarosa-dev/shopdeck-backend/pkg/db"
	"github.com/delarosa-dev/shopdeck-backend/pkg/db/models"
	pkgerrors "github.com/delarosa-dev/shopdeck-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	client, err := db.New(context.Background(), config.DBConfig{DSN: dsn, Driver: config.DBDriverSQLite}, nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.DB().AutoMigrate(&models.Page{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc, err := NewService(NewRepository(client.DB()), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"About Us":        "about-us",
		"  Hello  World ": "hello-world",
		"FAQ?!":           "faq",
		"--trimmed--":     "trimmed",
	}
	for input, want := range cases {
		if got := Slugify(input); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCreateDerivesSlugFromTitle(t *testing.T) {
	svc := newTestService(t)

	dto, err := svc.Create(context.Background(), uuid.New(), CreateInput{Title: "About Us", Body: "hello"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Slug != "about-us" {
		t.Fatalf("expected derived slug, got %q", dto.Slug)
	}

	loaded, err := svc.GetBySlug(context.Background(), "About Us")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if loaded.ID != dto.ID {
		t.Fatal("slug lookup returned the wrong page")
	}
}

func TestCreateDuplicateSlugConflicts(t *testing.T) {
	svc := newTestService(t)
	ownerID := uuid.New()

	if _, err := svc.Create(context.Background(), ownerID, CreateInput{Title: "About Us"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(context.Background(), ownerID, CreateInput{Title: "Contact", Slug: "about-us"})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateMergesFields(t *testing.T) {
	svc := newTestService(t)
	ownerID := uuid.New()
	dto, err := svc.Create(context.Background(), ownerID, CreateInput{Title: "Draft", Body: "wip"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	published := true
	body := "done"
	updated, err := svc.Update(context.Background(), ownerID, dto.ID, UpdateInput{Body: &body, Published: &published})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Body != "done" || !updated.Published || updated.Title != "Draft" {
		t.Fatalf("unexpected merge result %+v", updated)
	}
}

func TestUpdateForeignOwnerForbidden(t *testing.T) {
	svc := newTestService(t)
	dto, err := svc.Create(context.Background(), uuid.New(), CreateInput{Title: "Mine"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "stolen"
	_, err = svc.Update(context.Background(), uuid.New(), dto.ID, UpdateInput{Title: &title})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteReportsMissingAsFalse(t *testing.T) {
	svc := newTestService(t)
	ownerID := uuid.New()
	dto, err := svc.Create(context.Background(), ownerID, CreateInput{Title: "Temp"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := svc.Delete(context.Background(), ownerID, dto.ID)
	if err != nil || !deleted {
		t.Fatalf("expected deletion, got deleted=%v err=%v", deleted, err)
	}

	deleted, err = svc.Delete(context.Background(), ownerID, dto.ID)
	if err != nil {
		t.Fatalf("expected no error on missing page, got %v", err)
	}
	if deleted {
		t.Fatal("expected deleted=false")
	}
}

func TestListPublishedOnly(t *testing.T) {
	svc := newTestService(t)
	ownerID := uuid.New()

	if _, err := svc.Create(context.Background(), ownerID, CreateInput{Title: "Live", Published: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), ownerID, CreateInput{Title: "Draft"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := svc.List(context.Background(), false, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(all))
	}

	published, err := svc.List(context.Background(), true, 0)
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if len(published) != 1 || published[0].Title != "Live" {
		t.Fatalf("unexpected published set %+v", published)
	}
}
