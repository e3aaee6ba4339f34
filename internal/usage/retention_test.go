package usage

import (
	"context"
	"testing"
	"time"

	"github.com/goodtune/burner/internal/clock"
	"github.com/rs/zerolog"
)

func TestRetentionRejectsShortWindow(t *testing.T) {
	store := openTestStore(t)
	if _, err := NewRetentionScheduler(store.Buckets(), 30, "03:00", nil, zerolog.Nop()); err == nil {
		t.Fatal("expected error for retention shorter than a year")
	}
	if _, err := NewRetentionScheduler(store.Buckets(), 400, "3am", nil, zerolog.Nop()); err == nil {
		t.Fatal("expected error for malformed run time")
	}
}

func TestRetentionCalculateNextRun(t *testing.T) {
	store := openTestStore(t)
	rs, err := NewRetentionScheduler(store.Buckets(), 365, "03:30", nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	before := time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)
	if got := rs.calculateNextRun(before); !got.Equal(time.Date(2024, 5, 1, 3, 30, 0, 0, time.UTC)) {
		t.Errorf("expected same-day run, got %v", got)
	}
	after := time.Date(2024, 5, 1, 3, 30, 0, 0, time.UTC)
	if got := rs.calculateNextRun(after); !got.Equal(time.Date(2024, 5, 2, 3, 30, 0, 0, time.UTC)) {
		t.Errorf("expected next-day run, got %v", got)
	}
}

func TestRetentionPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	clk := &clock.TestClock{CurrentTime: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}

	host, err := store.Buckets().FindOrCreateHost(ctx, "example.com")
	if err != nil {
		t.Fatalf("create host: %v", err)
	}
	for _, date := range []string{"2024-06-13", "2024-06-14", "2024-06-15"} {
		if err := store.Buckets().UpsertAdd(ctx, host.ID, date, 60); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	rs, err := NewRetentionScheduler(store.Buckets(), 365, "03:00", clk, zerolog.Nop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	if cutoff := rs.Cutoff(clk.Now()); cutoff != "2024-06-14" {
		t.Fatalf("expected cutoff 2024-06-14, got %s", cutoff)
	}

	deleted, err := rs.Prune(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 bucket pruned, got %d", deleted)
	}
}
