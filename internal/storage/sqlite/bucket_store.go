package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/burner/internal/storage"
)

// writer performs the additive writes against either the database or an open transaction.
type writer struct {
	q querier
}

func (w *writer) FindOrCreateHost(ctx context.Context, name string) (*storage.Host, error) {
	normalized := storage.NormalizeName(name)
	if normalized == "" {
		return nil, fmt.Errorf("empty host name")
	}

	// The unique name constraint settles races: losers fall through to the select.
	if _, err := w.q.ExecContext(ctx,
		`INSERT INTO hosts (name, is_active, created_at) VALUES (?, 1, ?)
		 ON CONFLICT(name) DO NOTHING`,
		normalized, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("insert host %s: %w", normalized, err)
	}
	return scanHost(w.q.QueryRowContext(ctx,
		`SELECT `+hostColumns+` FROM hosts WHERE name = ?`, normalized))
}

func (w *writer) UpsertAdd(ctx context.Context, hostID int64, date string, seconds int64) error {
	if err := storage.ValidateDelta(hostID, date, seconds); err != nil {
		return err
	}
	_, err := w.q.ExecContext(ctx,
		`INSERT INTO daily_time_buckets (host_id, date, duration_seconds) VALUES (?, ?, ?)
		 ON CONFLICT(host_id, date) DO UPDATE
		 SET duration_seconds = duration_seconds + excluded.duration_seconds`,
		hostID, date, seconds,
	)
	if err != nil {
		return fmt.Errorf("upsert bucket %d/%s: %w", hostID, date, err)
	}
	return nil
}

type bucketStore struct {
	db *sql.DB
}

func (s *bucketStore) FindOrCreateHost(ctx context.Context, name string) (*storage.Host, error) {
	return (&writer{q: s.db}).FindOrCreateHost(ctx, name)
}

func (s *bucketStore) UpsertAdd(ctx context.Context, hostID int64, date string, seconds int64) error {
	return (&writer{q: s.db}).UpsertAdd(ctx, hostID, date, seconds)
}

func (s *bucketStore) GetBucket(ctx context.Context, hostID int64, date string) (*storage.DailyBucket, error) {
	bucket := storage.DailyBucket{HostID: hostID, Date: date}
	err := s.db.QueryRowContext(ctx,
		`SELECT duration_seconds FROM daily_time_buckets WHERE host_id = ? AND date = ?`,
		hostID, date,
	).Scan(&bucket.Seconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bucket %d/%s: %w", hostID, date, err)
	}
	return &bucket, nil
}

func (s *bucketStore) SumByDate(ctx context.Context, r storage.DateRange) (map[string]int64, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, SUM(duration_seconds) AS total
		 FROM daily_time_buckets
		 WHERE date BETWEEN ? AND ?
		 GROUP BY date
		 HAVING total > 0`,
		r.From, r.To,
	)
	if err != nil {
		return nil, fmt.Errorf("sum by date: %w", err)
	}
	defer func() { _ = rows.Close() }()

	totals := make(map[string]int64)
	for rows.Next() {
		var (
			date  string
			total int64
		)
		if err := rows.Scan(&date, &total); err != nil {
			return nil, fmt.Errorf("scan date total: %w", err)
		}
		totals[date] = total
	}
	return totals, rows.Err()
}

func (s *bucketStore) SumByHost(ctx context.Context, r storage.DateRange, limit int) ([]storage.HostTotal, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT h.id, h.name, SUM(b.duration_seconds) AS total
		 FROM daily_time_buckets b
		 JOIN hosts h ON h.id = b.host_id
		 WHERE b.date BETWEEN ? AND ?
		 GROUP BY h.id, h.name
		 HAVING total > 0
		 ORDER BY total DESC, h.id ASC
		 LIMIT ?`,
		r.From, r.To, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sum by host: %w", err)
	}
	defer func() { _ = rows.Close() }()

	totals := make([]storage.HostTotal, 0)
	for rows.Next() {
		var total storage.HostTotal
		if err := rows.Scan(&total.HostID, &total.Host, &total.Seconds); err != nil {
			return nil, fmt.Errorf("scan host total: %w", err)
		}
		totals = append(totals, total)
	}
	return totals, rows.Err()
}

func (s *bucketStore) DeleteAllBuckets(ctx context.Context) (int, error) {
	return s.exec(ctx, `DELETE FROM daily_time_buckets`)
}

func (s *bucketStore) DeleteBucketsBefore(ctx context.Context, cutoff string) (int, error) {
	if _, err := time.Parse("2006-01-02", cutoff); err != nil {
		return 0, fmt.Errorf("invalid cutoff date: %w", err)
	}
	return s.exec(ctx, `DELETE FROM daily_time_buckets WHERE date < ?`, cutoff)
}

func (s *bucketStore) exec(ctx context.Context, query string, args ...any) (int, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete buckets: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
