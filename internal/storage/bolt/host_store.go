package bolt

import (
	"context"
	"fmt"

	"github.com/goodtune/burner/internal/storage"
	"go.etcd.io/bbolt"
)

type hostStore struct {
	db *bbolt.DB
}

func (s *hostStore) Get(ctx context.Context, id int64) (*storage.Host, error) {
	var host *storage.Host
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var err error
		host, err = getHost(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return host, nil
}

func (s *hostStore) GetByName(ctx context.Context, name string) (*storage.Host, error) {
	var host *storage.Host
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		names, err := requireBucket(tx, bucketHostNames)
		if err != nil {
			return err
		}
		id := names.Get([]byte(storage.NormalizeName(name)))
		if id == nil {
			return storage.ErrNotFound
		}
		host, err = getHost(tx, keyID(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return host, nil
}

func (s *hostStore) List(ctx context.Context) ([]storage.Host, error) {
	hosts := make([]storage.Host, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := requireBucket(tx, bucketHosts)
		if err != nil {
			return err
		}
		return b.ForEach(func(_, v []byte) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var host storage.Host
			if err := unmarshal(v, &host); err != nil {
				return err
			}
			hosts = append(hosts, host)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return hosts, nil
}

func getHost(tx *bbolt.Tx, id int64) (*storage.Host, error) {
	b, err := requireBucket(tx, bucketHosts)
	if err != nil {
		return nil, err
	}
	value := b.Get(idKey(id))
	if value == nil {
		return nil, storage.ErrNotFound
	}
	var host storage.Host
	if err := unmarshal(value, &host); err != nil {
		return nil, fmt.Errorf("host %d: %w", id, err)
	}
	return &host, nil
}
