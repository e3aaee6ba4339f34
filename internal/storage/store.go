package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Hosts() HostStore
	Buckets() BucketStore

	// Update runs fn as one unit of work. Every write made through the Writer becomes
	// visible together, or not at all when fn or the commit fails.
	Update(ctx context.Context, fn func(Writer) error) error
}

// Writer is the write half of the bucket contract.
type Writer interface {
	// FindOrCreateHost returns the host with the given normalized name, creating it on first
	// reference. Concurrent callers racing on a new name all observe the same host.
	FindOrCreateHost(ctx context.Context, name string) (*Host, error)

	// UpsertAdd atomically creates the (host, date) bucket holding seconds, or adds seconds
	// to the existing bucket.
	UpsertAdd(ctx context.Context, hostID int64, date string, seconds int64) error
}

// BucketStore manages per-host daily time buckets.
//
// Writes performed directly on a BucketStore commit individually; use Store.Update to group
// them.
type BucketStore interface {
	Writer
	GetBucket(ctx context.Context, hostID int64, date string) (*DailyBucket, error)
	// SumByDate totals all hosts per date in r. Dates without activity are omitted.
	SumByDate(ctx context.Context, r DateRange) (map[string]int64, error)
	// SumByHost totals each host across r, ordered by seconds descending then host ID,
	// limited to limit entries. Hosts without activity are omitted.
	SumByHost(ctx context.Context, r DateRange, limit int) ([]HostTotal, error)
	DeleteAllBuckets(ctx context.Context) (int, error)
	// DeleteBucketsBefore removes buckets dated strictly before cutoff.
	DeleteBucketsBefore(ctx context.Context, cutoff string) (int, error)
}

// HostStore provides read access to hosts.
type HostStore interface {
	Get(ctx context.Context, id int64) (*Host, error)
	GetByName(ctx context.Context, name string) (*Host, error)
	List(ctx context.Context) ([]Host, error)
}
