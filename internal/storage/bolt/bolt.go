package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/goodtune/burner/internal/storage"
	"go.etcd.io/bbolt"
)

const (
	bucketHosts     = "hosts"
	bucketHostNames = "host_names"
	bucketDaily     = "daily_buckets"
)

// Store implements the storage.Store interface using bbolt.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store.
func Open(path string) (*Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return storage.EnsureDir(dir)
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketHosts, bucketHostNames, bucketDaily} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close closes the underlying store database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Hosts returns the host store.
func (s *Store) Hosts() storage.HostStore { return &hostStore{db: s.db} }

// Buckets returns the daily bucket store.
func (s *Store) Buckets() storage.BucketStore { return &bucketStore{db: s.db} }

// Update runs fn inside a single bolt write transaction.
func (s *Store) Update(ctx context.Context, fn func(storage.Writer) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fn(&txWriter{tx: tx})
	})
}

func marshal(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return data, nil
}

func unmarshal(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	return nil
}

func idKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

func keyID(key []byte) int64 {
	return int64(binary.BigEndian.Uint64(key))
}

// dailyKey orders buckets by date first so range queries are cursor seeks.
func dailyKey(date string, hostID int64) []byte {
	return []byte(fmt.Sprintf("%s/%020d", date, hostID))
}

func keyDate(key []byte) string {
	if len(key) < 10 {
		return ""
	}
	return string(key[:10])
}

func requireBucket(tx *bbolt.Tx, name string) (*bbolt.Bucket, error) {
	b := tx.Bucket([]byte(name))
	if b == nil {
		return nil, fmt.Errorf("bucket missing: %s", name)
	}
	return b, nil
}

// scanRange calls fn for every daily bucket dated inside r, in key order.
func scanRange(ctx context.Context, tx *bbolt.Tx, r storage.DateRange, fn func(storage.DailyBucket) error) error {
	b, err := requireBucket(tx, bucketDaily)
	if err != nil {
		return err
	}
	c := b.Cursor()
	for k, v := c.Seek([]byte(r.From)); k != nil && r.Contains(keyDate(k)); k, v = c.Next() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var bucket storage.DailyBucket
		if err := unmarshal(v, &bucket); err != nil {
			return err
		}
		if err := fn(bucket); err != nil {
			return err
		}
	}
	return nil
}
