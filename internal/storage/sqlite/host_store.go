package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/burner/internal/storage"
)

const hostColumns = `id, name, is_active, created_at`

type hostStore struct {
	q querier
}

func (s *hostStore) Get(ctx context.Context, id int64) (*storage.Host, error) {
	return scanHost(s.q.QueryRowContext(ctx, `SELECT `+hostColumns+` FROM hosts WHERE id = ?`, id))
}

func (s *hostStore) GetByName(ctx context.Context, name string) (*storage.Host, error) {
	return scanHost(s.q.QueryRowContext(ctx,
		`SELECT `+hostColumns+` FROM hosts WHERE name = ?`, storage.NormalizeName(name)))
}

func (s *hostStore) List(ctx context.Context) ([]storage.Host, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+hostColumns+` FROM hosts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list hosts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hosts := make([]storage.Host, 0)
	for rows.Next() {
		host, err := scanHost(rows)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, *host)
	}
	return hosts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHost(row rowScanner) (*storage.Host, error) {
	var (
		host      storage.Host
		createdAt string
	)
	if err := row.Scan(&host.ID, &host.Name, &host.Active, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan host: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("host %d created_at: %w", host.ID, err)
	}
	host.CreatedAt = parsed
	return &host, nil
}
