package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a miniredis instance for testing Lua scripts
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestFindOrCreateHostScript(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	keys := []string{"burner:hosts:names", "burner:hosts:seq"}
	tests := []struct {
		name   string
		host   string
		wantID int64
	}{
		{name: "first host", host: "a.example", wantID: 1},
		{name: "second host", host: "b.example", wantID: 2},
		{name: "existing host", host: "a.example", wantID: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := findOrCreateHost.Run(ctx, client, keys, tt.host, "2024-01-01T00:00:00Z", "burner:host:").Int64()
			if err != nil {
				t.Fatalf("Script failed: %v", err)
			}
			if id != tt.wantID {
				t.Errorf("Expected id %d, got %d", tt.wantID, id)
			}
		})
	}

	if got := mr.HGet("burner:host:2", "is_active"); got != "1" {
		t.Errorf("Expected new host active, got %q", got)
	}
}

func TestApplyBucketsScript(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	args := []interface{}{
		"burner:bucket:",
		"2024-01-01", 20240101, 1, 100,
		"2024-01-01", 20240101, 1, 50,
		"2024-01-02", 20240102, 2, 30,
	}
	applied, err := applyBuckets.Run(ctx, client, []string{"burner:bucket:dates"}, args...).Int()
	if err != nil {
		t.Fatalf("Script failed: %v", err)
	}
	if applied != 3 {
		t.Errorf("Expected 3 applied deltas, got %d", applied)
	}

	if got := mr.HGet("burner:bucket:2024-01-01", "1"); got != "150" {
		t.Errorf("Expected 150 seconds, got %q", got)
	}
	if got := mr.HGet("burner:bucket:2024-01-02", "2"); got != "30" {
		t.Errorf("Expected 30 seconds, got %q", got)
	}
	members, err := mr.ZMembers("burner:bucket:dates")
	if err != nil {
		t.Fatalf("ZMembers failed: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("Expected 2 indexed dates, got %v", members)
	}
}

func TestDeleteBucketsScript(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	mr.HSet("burner:bucket:2024-01-01", "1", "10", "2", "20")
	mr.HSet("burner:bucket:2024-01-05", "1", "10")
	if _, err := mr.ZAdd("burner:bucket:dates", 20240101, "2024-01-01"); err != nil {
		t.Fatalf("ZAdd failed: %v", err)
	}
	if _, err := mr.ZAdd("burner:bucket:dates", 20240105, "2024-01-05"); err != nil {
		t.Fatalf("ZAdd failed: %v", err)
	}

	deleted, err := deleteBuckets.Run(ctx, client, []string{"burner:bucket:dates"}, "burner:bucket:", "(20240105").Int()
	if err != nil {
		t.Fatalf("Script failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted buckets, got %d", deleted)
	}
	if mr.Exists("burner:bucket:2024-01-01") {
		t.Error("Expected 2024-01-01 bucket removed")
	}
	if !mr.Exists("burner:bucket:2024-01-05") {
		t.Error("Expected 2024-01-05 bucket kept")
	}
}
