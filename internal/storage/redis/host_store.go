package redis

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/goodtune/burner/internal/storage"
	"github.com/redis/go-redis/v9"
)

type hostStore struct {
	client *redis.Client
	keys   keys
}

// Get retrieves a host by id
func (s *hostStore) Get(ctx context.Context, id int64) (*storage.Host, error) {
	data, err := s.client.HGetAll(ctx, s.keys.host(id)).Result()
	if err != nil {
		return nil, err
	}
	return parseHost(data)
}

// GetByName retrieves a host by its normalized name
func (s *hostStore) GetByName(ctx context.Context, name string) (*storage.Host, error) {
	id, err := s.client.HGet(ctx, s.keys.hostNames(), storage.NormalizeName(name)).Int64()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// List returns every host ordered by id
func (s *hostStore) List(ctx context.Context) ([]storage.Host, error) {
	names, err := s.client.HGetAll(ctx, s.keys.hostNames()).Result()
	if err != nil {
		return nil, err
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(names))
	for _, rawID := range names {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			continue
		}
		cmds = append(cmds, pipe.HGetAll(ctx, s.keys.host(id)))
	}
	if len(cmds) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}

	hosts := make([]storage.Host, 0, len(cmds))
	for _, cmd := range cmds {
		host, err := parseHost(cmd.Val())
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, *host)
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].ID < hosts[j].ID })
	return hosts, nil
}
