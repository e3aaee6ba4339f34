package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/burner/internal/config"
	"github.com/goodtune/burner/internal/storage"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "burner"

// Store implements the storage.Store interface using Redis
type Store struct {
	client *redis.Client
	keys   keys
}

// Open creates a new Redis-backed storage instance
func Open(cfg config.RedisConfig) (*Store, error) {
	// Parse timeouts
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	// Determine address
	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{client: client, keys: keys{prefix: prefix}}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Hosts returns the HostStore implementation
func (s *Store) Hosts() storage.HostStore {
	return &hostStore{client: s.client, keys: s.keys}
}

// Buckets returns the BucketStore implementation
func (s *Store) Buckets() storage.BucketStore {
	return &bucketStore{client: s.client, keys: s.keys}
}

// Update buffers bucket writes made by fn and applies them with one script call, so either
// every increment lands or none does. Hosts are created immediately and survive a failed
// batch; they carry no time of their own.
func (s *Store) Update(ctx context.Context, fn func(storage.Writer) error) error {
	w := &batchWriter{store: &bucketStore{client: s.client, keys: s.keys}}
	if err := fn(w); err != nil {
		return err
	}
	if len(w.deltas) == 0 {
		return nil
	}
	return w.store.apply(ctx, w.deltas)
}

// keys builds the Redis key layout:
//
//	{prefix}:hosts:seq          host id counter
//	{prefix}:hosts:names        hash name -> id
//	{prefix}:host:{id}          hash of host fields
//	{prefix}:bucket:{date}      hash host id -> seconds
//	{prefix}:bucket:dates       sorted set of dates scored yyyymmdd
type keys struct {
	prefix string
}

func (k keys) hostSeq() string {
	return k.prefix + ":hosts:seq"
}

func (k keys) hostNames() string {
	return k.prefix + ":hosts:names"
}

func (k keys) hostPrefix() string {
	return k.prefix + ":host:"
}

func (k keys) host(id int64) string {
	return fmt.Sprintf("%s%d", k.hostPrefix(), id)
}

func (k keys) bucketPrefix() string {
	return k.prefix + ":bucket:"
}

func (k keys) bucket(date string) string {
	return k.bucketPrefix() + date
}

func (k keys) bucketDates() string {
	return k.prefix + ":bucket:dates"
}
