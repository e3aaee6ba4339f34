package storage

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goodtune/burner/internal/calendar"
)

// EnsureDir ensures a directory exists with default permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// NormalizeName trims and lowercases a host name for use as its unique key.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateDelta checks the arguments of an additive bucket upsert.
func ValidateDelta(hostID int64, date string, seconds int64) error {
	if hostID <= 0 {
		return fmt.Errorf("invalid host id %d", hostID)
	}
	if seconds < 0 {
		return fmt.Errorf("negative duration %d for %s", seconds, date)
	}
	if _, err := calendar.ParseDate(date); err != nil {
		return err
	}
	return nil
}

// RankHostTotals orders totals by seconds descending then host ID, drops hosts without
// activity and applies limit when positive.
func RankHostTotals(totals []HostTotal, limit int) []HostTotal {
	ranked := make([]HostTotal, 0, len(totals))
	for _, total := range totals {
		if total.Seconds > 0 {
			ranked = append(ranked, total)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Seconds != ranked[j].Seconds {
			return ranked[i].Seconds > ranked[j].Seconds
		}
		return ranked[i].HostID < ranked[j].HostID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
