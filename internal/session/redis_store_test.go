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
	store, err := NewRedisStore("redis://"+s.Addr(), "test:")
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func TestNewRedisStoreBadURL(t *testing.T) {
	if _, err := NewRedisStore("://nope", ""); err == nil {
		t.Error("expected error for malformed url")
	}
}

func TestSaveAndLookup(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	rec := Record{UserID: "user-123", Email: "a@example.com", IPAddress: "10.0.0.1"}
	if err := store.Save(ctx, "jti-1", rec, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Lookup(ctx, "jti-1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.UserID != rec.UserID || got.Email != rec.Email || got.IPAddress != rec.IPAddress {
		t.Errorf("Lookup = %+v, want %+v", got, rec)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on save")
	}
}

func TestLookupExpired(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Save(ctx, "jti-short", Record{UserID: "user-456"}, time.Second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	s.FastForward(2 * time.Second)

	if _, err := store.Lookup(ctx, "jti-short"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup error = %v, want ErrNotFound", err)
	}
}

func TestSaveRejectsNonPositiveTTL(t *testing.T) {
	store, _ := setupTestRedis(t)
	if err := store.Save(context.Background(), "jti", Record{UserID: "u"}, 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestRevoke(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Save(ctx, "jti-1", Record{UserID: "user-1"}, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Revoke(ctx, "jti-1"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := store.Lookup(ctx, "jti-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup after revoke error = %v, want ErrNotFound", err)
	}

	// revoking an unknown session is a no-op
	if err := store.Revoke(ctx, "missing"); err != nil {
		t.Errorf("Revoke(missing) = %v, want nil", err)
	}
}

func TestRevokeAll(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	for _, jti := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, jti, Record{UserID: "user-1"}, time.Hour); err != nil {
			t.Fatalf("Save(%s) failed: %v", jti, err)
		}
	}
	if err := store.Save(ctx, "other", Record{UserID: "user-2"}, time.Hour); err != nil {
		t.Fatalf("Save(other) failed: %v", err)
	}

	n, err := store.RevokeAll(ctx, "user-1")
	if err != nil {
		t.Fatalf("RevokeAll failed: %v", err)
	}
	if n != 3 {
		t.Errorf("RevokeAll = %d, want 3", n)
	}
	if _, err := store.Lookup(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("session b should be revoked, got %v", err)
	}
	if _, err := store.Lookup(ctx, "other"); err != nil {
		t.Errorf("other user's session should survive, got %v", err)
	}
}
