package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func sampleSession(id, userID string, expiresAt time.Time) Data {
	return Data{
		ID:          id,
		UserID:      userID,
		Username:    "priya",
		DisplayName: "Priya Sharma",
		Section:     SectionMap,
		RefreshHash: "hash-" + id,
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
}

func TestNewRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	if _, err := NewRedisStore("://not-a-url"); err == nil {
		t.Fatal("expected error for malformed redis url")
	}
}

func TestRedisSaveAndGet(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	data := sampleSession("ses_1", "usr_priya", time.Now().Add(24*time.Hour))
	if err := store.Save(ctx, data); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !s.Exists("civic:session:ses_1") {
		t.Fatal("expected session key with civic:session: prefix")
	}

	got, err := store.Get(ctx, "ses_1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserID != "usr_priya" || got.Section != SectionMap || got.RefreshHash != "hash-ses_1" {
		t.Errorf("unexpected session: %+v", got)
	}
}

func TestRedisExpiredSession(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Save(ctx, sampleSession("ses_short", "usr_amit", time.Now().Add(time.Second))); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	s.FastForward(2 * time.Second)

	if _, err := store.Get(ctx, "ses_short"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestRedisDelete(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Save(ctx, sampleSession("ses_a", "usr_a", time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, sampleSession("ses_b", "usr_b", time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, "ses_a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "ses_a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(ses_a) error = %v, want ErrNotFound", err)
	}
	if got, err := store.Get(ctx, "ses_b"); err != nil || got.UserID != "usr_b" {
		t.Errorf("Get(ses_b) = %+v, %v", got, err)
	}
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of missing session failed: %v", err)
	}
}

func TestRedisGetDefaultsSection(t *testing.T) {
	store, s := setupTestRedis(t)
	if err := s.Set("civic:session:legacy", `{"id":"legacy","user_id":"usr_x"}`); err != nil {
		t.Fatalf("seed key: %v", err)
	}
	got, err := store.Get(context.Background(), "legacy")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Section != DefaultSection {
		t.Errorf("Section = %q, want %q", got.Section, DefaultSection)
	}
}
