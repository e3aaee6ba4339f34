package stats

import (
	"context"
	"fmt"
	"sort"

	"github.com/goodtune/burner/internal/calendar"
	"github.com/goodtune/burner/internal/storage"
)

// DateTotals returns one entry per date in r, in order, with zero for dates the store has
// no activity for.
func DateTotals(ctx context.Context, buckets storage.BucketStore, r storage.DateRange) ([]DayTotal, error) {
	days, err := calendar.Days(r.From, r.To)
	if err != nil {
		return nil, err
	}
	sums, err := buckets.SumByDate(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("sum %s..%s: %w", r.From, r.To, err)
	}

	totals := make([]DayTotal, len(days))
	for i, day := range days {
		totals[i] = DayTotal{Date: day, Seconds: sums[day]}
	}
	return totals, nil
}

// computeLevels derives quartile thresholds from the nonzero totals.
func computeLevels(totals []DayTotal) HeatmapLevels {
	values := make([]int64, 0, len(totals))
	for _, t := range totals {
		if t.Seconds > 0 {
			values = append(values, t.Seconds)
		}
	}
	if len(values) == 0 {
		return HeatmapLevels{L1: 1, L2: 2, L3: 3, L4: 4}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	n := len(values)
	return HeatmapLevels{
		L1: values[0],
		L2: values[n/4],
		L3: values[n/2],
		L4: values[n*3/4],
	}
}

// assignLevel maps seconds onto an intensity from 0 (none) to 4.
func assignLevel(seconds int64, levels HeatmapLevels) int {
	switch {
	case seconds <= 0:
		return 0
	case seconds <= levels.L2:
		return 1
	case seconds <= levels.L3:
		return 2
	case seconds <= levels.L4:
		return 3
	default:
		return 4
	}
}

func buildHeatmap(totals []DayTotal) Heatmap {
	levels := computeLevels(totals)
	entries := make([]HeatmapEntry, len(totals))
	for i, t := range totals {
		entries[i] = HeatmapEntry{
			Date:    t.Date,
			Seconds: t.Seconds,
			Level:   assignLevel(t.Seconds, levels),
		}
	}
	return Heatmap{Days: len(entries), Levels: levels, Data: entries}
}
