package bolt

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

func TestStoreReopenKeepsBuckets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "burner.bolt")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	ctx := context.Background()
	host, err := store.Buckets().FindOrCreateHost(ctx, "example.com")
	if err != nil {
		t.Fatalf("create host: %v", err)
	}
	if err := store.Buckets().UpsertAdd(ctx, host.ID, "2024-01-02", 120); err != nil {
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

	bucket, err := store.Buckets().GetBucket(ctx, host.ID, "2024-01-02")
	if err != nil {
		t.Fatalf("get bucket: %v", err)
	}
	if bucket.Seconds != 120 {
		t.Fatalf("expected total seconds 120, got %d", bucket.Seconds)
	}

	next, err := store.Buckets().FindOrCreateHost(ctx, "other.example")
	if err != nil {
		t.Fatalf("create host: %v", err)
	}
	if next.ID != host.ID+1 {
		t.Fatalf("expected sequence to continue at %d, got %d", host.ID+1, next.ID)
	}
}

func TestDeleteBeforeRejectsBadCutoff(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Buckets().DeleteBucketsBefore(context.Background(), "yesterday"); err == nil {
		t.Fatal("expected error for invalid cutoff")
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "burner.bolt")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSumByDateStopsAtRangeBounds(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	host, err := store.Buckets().FindOrCreateHost(ctx, "example.com")
	if err != nil {
		t.Fatalf("create host: %v", err)
	}
	for _, date := range []string{"2024-01-09", "2024-01-10", "2024-01-12", "2024-01-13"} {
		if err := store.Buckets().UpsertAdd(ctx, host.ID, date, 60); err != nil {
			t.Fatalf("upsert add %s: %v", date, err)
		}
	}

	totals, err := store.Buckets().SumByDate(ctx, storage.DateRange{From: "2024-01-10", To: "2024-01-12"})
	if err != nil {
		t.Fatalf("sum by date: %v", err)
	}
	if len(totals) != 2 || totals["2024-01-10"] != 60 || totals["2024-01-12"] != 60 {
		t.Fatalf("expected only in-range dates, got %v", totals)
	}
}
