package bolt

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/burner/internal/storage"
	"go.etcd.io/bbolt"
)

// txWriter applies writes inside an open write transaction. Bolt allows a single writer at
// a time, which makes every read-modify-write below atomic.
type txWriter struct {
	tx *bbolt.Tx
}

func (w *txWriter) FindOrCreateHost(ctx context.Context, name string) (*storage.Host, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	normalized := storage.NormalizeName(name)
	if normalized == "" {
		return nil, fmt.Errorf("empty host name")
	}

	names, err := requireBucket(w.tx, bucketHostNames)
	if err != nil {
		return nil, err
	}
	if id := names.Get([]byte(normalized)); id != nil {
		return getHost(w.tx, keyID(id))
	}

	hosts, err := requireBucket(w.tx, bucketHosts)
	if err != nil {
		return nil, err
	}
	seq, err := hosts.NextSequence()
	if err != nil {
		return nil, fmt.Errorf("next host id: %w", err)
	}
	host := storage.Host{
		ID:        int64(seq),
		Name:      normalized,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	data, err := marshal(host)
	if err != nil {
		return nil, err
	}
	if err := hosts.Put(idKey(host.ID), data); err != nil {
		return nil, err
	}
	if err := names.Put([]byte(normalized), idKey(host.ID)); err != nil {
		return nil, err
	}
	return &host, nil
}

func (w *txWriter) UpsertAdd(ctx context.Context, hostID int64, date string, seconds int64) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := storage.ValidateDelta(hostID, date, seconds); err != nil {
		return err
	}
	b, err := requireBucket(w.tx, bucketDaily)
	if err != nil {
		return err
	}

	key := dailyKey(date, hostID)
	bucket := storage.DailyBucket{HostID: hostID, Date: date}
	if existing := b.Get(key); existing != nil {
		if err := unmarshal(existing, &bucket); err != nil {
			return err
		}
	}
	bucket.Seconds += seconds
	data, err := marshal(bucket)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

type bucketStore struct {
	db *bbolt.DB
}

func (s *bucketStore) FindOrCreateHost(ctx context.Context, name string) (*storage.Host, error) {
	var host *storage.Host
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		host, err = (&txWriter{tx: tx}).FindOrCreateHost(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return host, nil
}

func (s *bucketStore) UpsertAdd(ctx context.Context, hostID int64, date string, seconds int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return (&txWriter{tx: tx}).UpsertAdd(ctx, hostID, date, seconds)
	})
}

func (s *bucketStore) GetBucket(ctx context.Context, hostID int64, date string) (*storage.DailyBucket, error) {
	var bucket *storage.DailyBucket
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b, err := requireBucket(tx, bucketDaily)
		if err != nil {
			return err
		}
		value := b.Get(dailyKey(date, hostID))
		if value == nil {
			return storage.ErrNotFound
		}
		var result storage.DailyBucket
		if err := unmarshal(value, &result); err != nil {
			return err
		}
		bucket = &result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bucket, nil
}

func (s *bucketStore) SumByDate(ctx context.Context, r storage.DateRange) (map[string]int64, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	totals := make(map[string]int64)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return scanRange(ctx, tx, r, func(bucket storage.DailyBucket) error {
			if bucket.Seconds > 0 {
				totals[bucket.Date] += bucket.Seconds
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func (s *bucketStore) SumByHost(ctx context.Context, r storage.DateRange, limit int) ([]storage.HostTotal, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	var totals []storage.HostTotal
	err := s.db.View(func(tx *bbolt.Tx) error {
		byHost := make(map[int64]int64)
		if err := scanRange(ctx, tx, r, func(bucket storage.DailyBucket) error {
			byHost[bucket.HostID] += bucket.Seconds
			return nil
		}); err != nil {
			return err
		}

		totals = make([]storage.HostTotal, 0, len(byHost))
		for id, seconds := range byHost {
			host, err := getHost(tx, id)
			if err != nil {
				return fmt.Errorf("resolve host %d: %w", id, err)
			}
			totals = append(totals, storage.HostTotal{HostID: id, Host: host.Name, Seconds: seconds})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return storage.RankHostTotals(totals, limit), nil
}

func (s *bucketStore) DeleteAllBuckets(ctx context.Context) (int, error) {
	return s.deleteWhere(ctx, func(string) bool { return true })
}

func (s *bucketStore) DeleteBucketsBefore(ctx context.Context, cutoff string) (int, error) {
	if _, err := time.Parse("2006-01-02", cutoff); err != nil {
		return 0, fmt.Errorf("invalid cutoff date: %w", err)
	}
	return s.deleteWhere(ctx, func(date string) bool { return date < cutoff })
}

// deleteWhere collects matching keys before deleting them, since deleting under a live
// cursor can skip entries.
func (s *bucketStore) deleteWhere(ctx context.Context, match func(date string) bool) (int, error) {
	deleted := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b, err := requireBucket(tx, bucketDaily)
		if err != nil {
			return err
		}

		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if !match(keyDate(k)) {
				// Keys are date ordered, so the first miss ends a prefix match.
				break
			}
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		deleted = len(keys)
		return nil
	})
	return deleted, err
}
