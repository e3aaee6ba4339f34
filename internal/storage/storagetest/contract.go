// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/goodtune/burner/internal/storage"
)

// Opener returns an empty store for one test.
type Opener func(t *testing.T) storage.Store

// Run exercises the bucket and host contracts against stores produced by open.
func Run(t *testing.T, open Opener) {
	t.Run("FindOrCreateHost", func(t *testing.T) { testFindOrCreateHost(t, open(t)) })
	t.Run("ConcurrentHostCreation", func(t *testing.T) { testConcurrentHostCreation(t, open(t)) })
	t.Run("UpsertAddAccumulates", func(t *testing.T) { testUpsertAdd(t, open(t)) })
	t.Run("ConcurrentUpsertAdd", func(t *testing.T) { testConcurrentUpsertAdd(t, open(t)) })
	t.Run("UpsertAddRejectsNegative", func(t *testing.T) { testUpsertAddRejectsNegative(t, open(t)) })
	t.Run("SumByDate", func(t *testing.T) { testSumByDate(t, open(t)) })
	t.Run("SumByHost", func(t *testing.T) { testSumByHost(t, open(t)) })
	t.Run("UpdateCommits", func(t *testing.T) { testUpdateCommits(t, open(t)) })
	t.Run("UpdateRollsBack", func(t *testing.T) { testUpdateRollsBack(t, open(t)) })
	t.Run("DeleteBuckets", func(t *testing.T) { testDeleteBuckets(t, open(t)) })
}

func testFindOrCreateHost(t *testing.T, store storage.Store) {
	ctx := context.Background()
	buckets := store.Buckets()

	first, err := buckets.FindOrCreateHost(ctx, "example.com")
	if err != nil {
		t.Fatalf("create host: %v", err)
	}
	if first.ID <= 0 || first.Name != "example.com" || !first.Active {
		t.Fatalf("unexpected host: %+v", first)
	}

	again, err := buckets.FindOrCreateHost(ctx, " Example.COM ")
	if err != nil {
		t.Fatalf("find host: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("expected existing host %d, got %d", first.ID, again.ID)
	}

	second, err := buckets.FindOrCreateHost(ctx, "golang.org")
	if err != nil {
		t.Fatalf("create second host: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}

	byName, err := store.Hosts().GetByName(ctx, "golang.org")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if byName.ID != second.ID {
		t.Fatalf("expected host %d, got %d", second.ID, byName.ID)
	}
	byID, err := store.Hosts().Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Name != "example.com" {
		t.Fatalf("expected example.com, got %s", byID.Name)
	}
	if _, err := store.Hosts().GetByName(ctx, "missing.example"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	hosts, err := store.Hosts().List(ctx)
	if err != nil {
		t.Fatalf("list hosts: %v", err)
	}
	if len(hosts) != 2 {
		t.Fatalf("expected 2 hosts, got %d", len(hosts))
	}
}

func testConcurrentHostCreation(t *testing.T, store storage.Store) {
	ctx := context.Background()
	const workers = 8

	ids := make([]int64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			host, err := store.Buckets().FindOrCreateHost(ctx, "race.example")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = host.ID
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("expected a single host id, got %v", ids)
		}
	}
	hosts, err := store.Hosts().List(ctx)
	if err != nil {
		t.Fatalf("list hosts: %v", err)
	}
	if len(hosts) != 1 {
		t.Fatalf("expected 1 host, got %d", len(hosts))
	}
}

func testUpsertAdd(t *testing.T, store storage.Store) {
	ctx := context.Background()
	host := mustHost(t, store, "example.com")

	if _, err := store.Buckets().GetBucket(ctx, host.ID, "2024-01-01"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first write, got %v", err)
	}
	for _, seconds := range []int64{120, 30} {
		if err := store.Buckets().UpsertAdd(ctx, host.ID, "2024-01-01", seconds); err != nil {
			t.Fatalf("upsert add: %v", err)
		}
	}

	bucket, err := store.Buckets().GetBucket(ctx, host.ID, "2024-01-01")
	if err != nil {
		t.Fatalf("get bucket: %v", err)
	}
	if bucket.Seconds != 150 {
		t.Fatalf("expected 150 seconds, got %d", bucket.Seconds)
	}
}

func testConcurrentUpsertAdd(t *testing.T, store storage.Store) {
	ctx := context.Background()
	host := mustHost(t, store, "example.com")
	const writers = 20

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Update(ctx, func(w storage.Writer) error {
				return w.UpsertAdd(ctx, host.ID, "2024-01-01", 10)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent upsert: %v", err)
		}
	}

	bucket, err := store.Buckets().GetBucket(ctx, host.ID, "2024-01-01")
	if err != nil {
		t.Fatalf("get bucket: %v", err)
	}
	if bucket.Seconds != writers*10 {
		t.Fatalf("expected %d seconds, got %d", writers*10, bucket.Seconds)
	}
}

func testUpsertAddRejectsNegative(t *testing.T, store storage.Store) {
	host := mustHost(t, store, "example.com")
	if err := store.Buckets().UpsertAdd(context.Background(), host.ID, "2024-01-01", -5); err == nil {
		t.Fatal("expected error for negative duration")
	}
}

func testSumByDate(t *testing.T, store storage.Store) {
	ctx := context.Background()
	a := mustHost(t, store, "a.example")
	b := mustHost(t, store, "b.example")

	mustAdd(t, store, a.ID, "2024-01-01", 100)
	mustAdd(t, store, b.ID, "2024-01-01", 50)
	mustAdd(t, store, a.ID, "2024-01-03", 25)
	mustAdd(t, store, a.ID, "2024-01-04", 0)
	mustAdd(t, store, b.ID, "2024-01-09", 999)

	totals, err := store.Buckets().SumByDate(ctx, storage.DateRange{From: "2024-01-01", To: "2024-01-05"})
	if err != nil {
		t.Fatalf("sum by date: %v", err)
	}
	want := map[string]int64{"2024-01-01": 150, "2024-01-03": 25}
	if len(totals) != len(want) {
		t.Fatalf("expected %v, got %v", want, totals)
	}
	for date, seconds := range want {
		if totals[date] != seconds {
			t.Errorf("%s: expected %d, got %d", date, seconds, totals[date])
		}
	}

	if _, err := store.Buckets().SumByDate(ctx, storage.DateRange{From: "2024-02-01", To: "2024-01-01"}); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func testSumByHost(t *testing.T, store storage.Store) {
	ctx := context.Background()
	hosts := make([]*storage.Host, 7)
	for i := range hosts {
		hosts[i] = mustHost(t, store, fmt.Sprintf("host%d.example", i))
	}

	mustAdd(t, store, hosts[0].ID, "2024-01-01", 100)
	mustAdd(t, store, hosts[1].ID, "2024-01-02", 300)
	mustAdd(t, store, hosts[2].ID, "2024-01-02", 100)
	mustAdd(t, store, hosts[3].ID, "2024-01-03", 50)
	mustAdd(t, store, hosts[3].ID, "2024-01-04", 50)
	mustAdd(t, store, hosts[4].ID, "2024-01-04", 10)
	mustAdd(t, store, hosts[5].ID, "2024-01-04", 5)
	mustAdd(t, store, hosts[6].ID, "2023-12-31", 10000)

	r := storage.DateRange{From: "2024-01-01", To: "2024-01-07"}
	top, err := store.Buckets().SumByHost(ctx, r, 5)
	if err != nil {
		t.Fatalf("sum by host: %v", err)
	}
	want := []struct {
		id      int64
		seconds int64
	}{
		{hosts[1].ID, 300},
		{hosts[0].ID, 100},
		{hosts[2].ID, 100},
		{hosts[3].ID, 100},
		{hosts[4].ID, 10},
	}
	if len(top) != len(want) {
		t.Fatalf("expected %d hosts, got %+v", len(want), top)
	}
	for i, w := range want {
		if top[i].HostID != w.id || top[i].Seconds != w.seconds {
			t.Errorf("rank %d: expected host %d with %d, got %+v", i, w.id, w.seconds, top[i])
		}
	}
	if top[0].Host != "host1.example" {
		t.Errorf("expected host name host1.example, got %s", top[0].Host)
	}

	few, err := store.Buckets().SumByHost(ctx, storage.DateRange{From: "2024-01-03", To: "2024-01-03"}, 5)
	if err != nil {
		t.Fatalf("sum by host: %v", err)
	}
	if len(few) != 1 {
		t.Fatalf("expected only active hosts, got %+v", few)
	}
}

func testUpdateCommits(t *testing.T, store storage.Store) {
	ctx := context.Background()
	var hostID int64
	err := store.Update(ctx, func(w storage.Writer) error {
		host, err := w.FindOrCreateHost(ctx, "example.com")
		if err != nil {
			return err
		}
		hostID = host.ID
		if err := w.UpsertAdd(ctx, host.ID, "2024-01-01", 60); err != nil {
			return err
		}
		return w.UpsertAdd(ctx, host.ID, "2024-01-01", 40)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	bucket, err := store.Buckets().GetBucket(ctx, hostID, "2024-01-01")
	if err != nil {
		t.Fatalf("get bucket: %v", err)
	}
	if bucket.Seconds != 100 {
		t.Fatalf("expected 100 seconds, got %d", bucket.Seconds)
	}
}

func testUpdateRollsBack(t *testing.T, store storage.Store) {
	ctx := context.Background()
	host := mustHost(t, store, "example.com")
	mustAdd(t, store, host.ID, "2024-01-01", 10)

	failure := errors.New("boom")
	err := store.Update(ctx, func(w storage.Writer) error {
		if err := w.UpsertAdd(ctx, host.ID, "2024-01-01", 500); err != nil {
			return err
		}
		if err := w.UpsertAdd(ctx, host.ID, "2024-01-02", 500); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected fn error, got %v", err)
	}

	bucket, err := store.Buckets().GetBucket(ctx, host.ID, "2024-01-01")
	if err != nil {
		t.Fatalf("get bucket: %v", err)
	}
	if bucket.Seconds != 10 {
		t.Fatalf("expected rollback to keep 10 seconds, got %d", bucket.Seconds)
	}
	if _, err := store.Buckets().GetBucket(ctx, host.ID, "2024-01-02"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected no bucket after rollback, got %v", err)
	}
}

func testDeleteBuckets(t *testing.T, store storage.Store) {
	ctx := context.Background()
	a := mustHost(t, store, "a.example")
	b := mustHost(t, store, "b.example")
	mustAdd(t, store, a.ID, "2023-12-30", 10)
	mustAdd(t, store, b.ID, "2023-12-31", 10)
	mustAdd(t, store, a.ID, "2024-01-01", 10)
	mustAdd(t, store, b.ID, "2024-01-02", 10)

	deleted, err := store.Buckets().DeleteBucketsBefore(ctx, "2024-01-01")
	if err != nil {
		t.Fatalf("delete before: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted buckets, got %d", deleted)
	}
	if _, err := store.Buckets().GetBucket(ctx, a.ID, "2024-01-01"); err != nil {
		t.Fatalf("expected cutoff date kept: %v", err)
	}

	deleted, err = store.Buckets().DeleteAllBuckets(ctx)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted buckets, got %d", deleted)
	}
	totals, err := store.Buckets().SumByDate(ctx, storage.DateRange{From: "2023-01-01", To: "2024-12-31"})
	if err != nil {
		t.Fatalf("sum by date: %v", err)
	}
	if len(totals) != 0 {
		t.Fatalf("expected no buckets, got %v", totals)
	}

	hosts, err := store.Hosts().List(ctx)
	if err != nil {
		t.Fatalf("list hosts: %v", err)
	}
	if len(hosts) != 2 {
		t.Fatalf("expected hosts to survive a wipe, got %d", len(hosts))
	}
}

func mustHost(t *testing.T, store storage.Store, name string) *storage.Host {
	t.Helper()
	host, err := store.Buckets().FindOrCreateHost(context.Background(), name)
	if err != nil {
		t.Fatalf("create host %s: %v", name, err)
	}
	return host
}

func mustAdd(t *testing.T, store storage.Store, hostID int64, date string, seconds int64) {
	t.Helper()
	if err := store.Buckets().UpsertAdd(context.Background(), hostID, date, seconds); err != nil {
		t.Fatalf("upsert %d/%s: %v", hostID, date, err)
	}
}
