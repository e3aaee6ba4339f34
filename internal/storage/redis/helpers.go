package redis

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/burner/internal/calendar"
	"github.com/goodtune/burner/internal/storage"
)

// parseHost converts a Redis hash to Host
func parseHost(data map[string]string) (*storage.Host, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	id, err := strconv.ParseInt(data["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}

	active, err := strconv.ParseBool(data["is_active"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse is_active: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, data["created_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &storage.Host{
		ID:        id,
		Name:      data["name"],
		Active:    active,
		CreatedAt: createdAt,
	}, nil
}

// dateScore maps a YYYY-MM-DD date onto an integer that sorts like the date.
func dateScore(date string) (int64, error) {
	parsed, err := calendar.ParseDate(date)
	if err != nil {
		return 0, err
	}
	y, m, d := parsed.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d), nil
}

func rangeScores(r storage.DateRange) (string, string, error) {
	if err := r.Validate(); err != nil {
		return "", "", err
	}
	from, err := dateScore(r.From)
	if err != nil {
		return "", "", err
	}
	to, err := dateScore(r.To)
	if err != nil {
		return "", "", err
	}
	return strconv.FormatInt(from, 10), strconv.FormatInt(to, 10), nil
}
