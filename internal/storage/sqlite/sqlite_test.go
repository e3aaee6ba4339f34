package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/goodtune/burner/internal/storage"
	"github.com/goodtune/burner/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return openTestStore(t)
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burner.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	ctx := context.Background()
	host, err := store.Buckets().FindOrCreateHost(ctx, "example.com")
	if err != nil {
		t.Fatalf("create host: %v", err)
	}
	if err := store.Buckets().UpsertAdd(ctx, host.ID, "2024-01-01", 90); err != nil {
		t.Fatalf("upsert add: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = store.Close() }()

	bucket, err := store.Buckets().GetBucket(ctx, host.ID, "2024-01-01")
	if err != nil {
		t.Fatalf("get bucket: %v", err)
	}
	if bucket.Seconds != 90 {
		t.Fatalf("expected 90 seconds, got %d", bucket.Seconds)
	}
}

func TestUpsertAddUnknownHost(t *testing.T) {
	store := openTestStore(t)
	if err := store.Buckets().UpsertAdd(context.Background(), 42, "2024-01-01", 10); err == nil {
		t.Fatal("expected foreign key violation for unknown host")
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "burner.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
