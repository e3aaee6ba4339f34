package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/burner/internal/storage"
	"github.com/redis/go-redis/v9"
)

var (
	findOrCreateHost = redis.NewScript(findOrCreateHostScript)
	applyBuckets     = redis.NewScript(applyBucketsScript)
	deleteBuckets    = redis.NewScript(deleteBucketsScript)
)

type delta struct {
	hostID  int64
	date    string
	score   int64
	seconds int64
}

type bucketStore struct {
	client *redis.Client
	keys   keys
}

// FindOrCreateHost resolves a host name, creating it on first reference
func (s *bucketStore) FindOrCreateHost(ctx context.Context, name string) (*storage.Host, error) {
	normalized := storage.NormalizeName(name)
	if normalized == "" {
		return nil, fmt.Errorf("empty host name")
	}

	keys := []string{s.keys.hostNames(), s.keys.hostSeq()}
	args := []interface{}{
		normalized,
		time.Now().UTC().Format(time.RFC3339Nano),
		s.keys.hostPrefix(),
	}
	id, err := findOrCreateHost.Run(ctx, s.client, keys, args...).Int64()
	if err != nil {
		return nil, fmt.Errorf("find or create host %s: %w", normalized, err)
	}
	return (&hostStore{client: s.client, keys: s.keys}).Get(ctx, id)
}

// UpsertAdd atomically adds seconds to the (host, date) bucket
func (s *bucketStore) UpsertAdd(ctx context.Context, hostID int64, date string, seconds int64) error {
	d, err := newDelta(hostID, date, seconds)
	if err != nil {
		return err
	}
	return s.apply(ctx, []delta{d})
}

func (s *bucketStore) apply(ctx context.Context, deltas []delta) error {
	args := make([]interface{}, 0, 1+len(deltas)*4)
	args = append(args, s.keys.bucketPrefix())
	for _, d := range deltas {
		args = append(args, d.date, d.score, d.hostID, d.seconds)
	}
	if err := applyBuckets.Run(ctx, s.client, []string{s.keys.bucketDates()}, args...).Err(); err != nil {
		return fmt.Errorf("apply %d bucket deltas: %w", len(deltas), err)
	}
	return nil
}

// GetBucket retrieves a single daily bucket
func (s *bucketStore) GetBucket(ctx context.Context, hostID int64, date string) (*storage.DailyBucket, error) {
	field := strconv.FormatInt(hostID, 10)
	seconds, err := s.client.HGet(ctx, s.keys.bucket(date), field).Int64()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &storage.DailyBucket{HostID: hostID, Date: date, Seconds: seconds}, nil
}

// SumByDate totals all hosts per date in range
func (s *bucketStore) SumByDate(ctx context.Context, r storage.DateRange) (map[string]int64, error) {
	buckets, err := s.loadRange(ctx, r)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int64)
	for date, byHost := range buckets {
		var total int64
		for _, seconds := range byHost {
			total += seconds
		}
		if total > 0 {
			totals[date] = total
		}
	}
	return totals, nil
}

// SumByHost totals each host across the range
func (s *bucketStore) SumByHost(ctx context.Context, r storage.DateRange, limit int) ([]storage.HostTotal, error) {
	buckets, err := s.loadRange(ctx, r)
	if err != nil {
		return nil, err
	}

	byHost := make(map[int64]int64)
	for _, hosts := range buckets {
		for id, seconds := range hosts {
			byHost[id] += seconds
		}
	}

	totals := make([]storage.HostTotal, 0, len(byHost))
	for id, seconds := range byHost {
		totals = append(totals, storage.HostTotal{HostID: id, Seconds: seconds})
	}
	ranked := storage.RankHostTotals(totals, limit)
	if len(ranked) == 0 {
		return ranked, nil
	}

	pipe := s.client.Pipeline()
	names := make([]*redis.StringCmd, len(ranked))
	for i, total := range ranked {
		names[i] = pipe.HGet(ctx, s.keys.host(total.HostID), "name")
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("resolve host names: %w", err)
	}
	for i := range ranked {
		ranked[i].Host = names[i].Val()
	}
	return ranked, nil
}

// loadRange reads every bucket dated inside r, keyed by date then host id.
func (s *bucketStore) loadRange(ctx context.Context, r storage.DateRange) (map[string]map[int64]int64, error) {
	lo, hi, err := rangeScores(r)
	if err != nil {
		return nil, err
	}
	dates, err := s.client.ZRangeByScore(ctx, s.keys.bucketDates(), &redis.ZRangeBy{Min: lo, Max: hi}).Result()
	if err != nil {
		return nil, fmt.Errorf("list bucket dates: %w", err)
	}
	if len(dates) == 0 {
		return map[string]map[int64]int64{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(dates))
	for i, date := range dates {
		cmds[i] = pipe.HGetAll(ctx, s.keys.bucket(date))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("load buckets: %w", err)
	}

	buckets := make(map[string]map[int64]int64, len(dates))
	for i, date := range dates {
		byHost := make(map[int64]int64)
		for field, value := range cmds[i].Val() {
			id, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bucket %s host %q: %w", date, field, err)
			}
			seconds, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bucket %s/%d seconds: %w", date, id, err)
			}
			byHost[id] = seconds
		}
		buckets[date] = byHost
	}
	return buckets, nil
}

// DeleteAllBuckets removes every daily bucket
func (s *bucketStore) DeleteAllBuckets(ctx context.Context) (int, error) {
	return s.deleteUpTo(ctx, "+inf")
}

// DeleteBucketsBefore removes buckets dated strictly before cutoff
func (s *bucketStore) DeleteBucketsBefore(ctx context.Context, cutoff string) (int, error) {
	score, err := dateScore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("invalid cutoff date: %w", err)
	}
	return s.deleteUpTo(ctx, "("+strconv.FormatInt(score, 10))
}

func (s *bucketStore) deleteUpTo(ctx context.Context, maxScore string) (int, error) {
	args := []interface{}{s.keys.bucketPrefix(), maxScore}
	deleted, err := deleteBuckets.Run(ctx, s.client, []string{s.keys.bucketDates()}, args...).Int()
	if err != nil {
		return 0, fmt.Errorf("delete buckets: %w", err)
	}
	return deleted, nil
}

// batchWriter collects bucket deltas for Store.Update.
type batchWriter struct {
	store  *bucketStore
	deltas []delta
}

func (w *batchWriter) FindOrCreateHost(ctx context.Context, name string) (*storage.Host, error) {
	return w.store.FindOrCreateHost(ctx, name)
}

func (w *batchWriter) UpsertAdd(_ context.Context, hostID int64, date string, seconds int64) error {
	d, err := newDelta(hostID, date, seconds)
	if err != nil {
		return err
	}
	w.deltas = append(w.deltas, d)
	return nil
}

func newDelta(hostID int64, date string, seconds int64) (delta, error) {
	if err := storage.ValidateDelta(hostID, date, seconds); err != nil {
		return delta{}, err
	}
	score, err := dateScore(date)
	if err != nil {
		return delta{}, err
	}
	return delta{hostID: hostID, date: date, score: score, seconds: seconds}, nil
}
