package session

import (
	"context"
	"errors"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	val, ok := m.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

type prefixKeyer struct{}

func (prefixKeyer) AccessSessionKey(accessID string) string {
	return "sd:session:access:" + accessID
}

func newTestManager() (*Manager, *memoryStore) {
	store := newMemoryStore()
	return &Manager{store: store, keyer: prefixKeyer{}, ttl: time.Hour}, store
}

func TestGenerateAndHasSession(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	token, err := mgr.Generate(ctx, "access-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty refresh token")
	}

	active, err := mgr.HasSession(ctx, "access-1")
	if err != nil {
		t.Fatalf("HasSession failed: %v", err)
	}
	if !active {
		t.Fatal("expected session to exist after generate")
	}

	active, err = mgr.HasSession(ctx, "unknown")
	if err != nil {
		t.Fatalf("HasSession failed: %v", err)
	}
	if active {
		t.Fatal("expected no session for unknown access id")
	}
}

func TestRotateInvalidatesOldSession(t *testing.T) {
	mgr, store := newTestManager()
	ctx := context.Background()

	token, err := mgr.Generate(ctx, "access-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	newAccessID, newToken, err := mgr.Rotate(ctx, "access-1", token)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if newAccessID == "" || newToken == "" {
		t.Fatal("expected new access id and token")
	}
	if newToken == token {
		t.Fatal("expected refresh token to rotate")
	}

	if _, ok := store.values[prefixKeyer{}.AccessSessionKey("access-1")]; ok {
		t.Fatal("expected old session key to be deleted")
	}
	if _, ok := store.values[prefixKeyer{}.AccessSessionKey(newAccessID)]; !ok {
		t.Fatal("expected new session key to exist")
	}
}

func TestRotateRejectsBadToken(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	if _, err := mgr.Generate(ctx, "access-1"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, _, err := mgr.Rotate(ctx, "access-1", "forged"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
	if _, _, err := mgr.Rotate(ctx, "missing", "whatever"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for unknown session, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	if _, err := mgr.Generate(ctx, "access-1"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if err := mgr.Revoke(ctx, "access-1"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	active, err := mgr.HasSession(ctx, "access-1")
	if err != nil {
		t.Fatalf("HasSession failed: %v", err)
	}
	if active {
		t.Fatal("expected session to be revoked")
	}
}
