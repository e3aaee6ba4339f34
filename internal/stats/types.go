// Package stats builds time usage reports from daily buckets.
package stats

import (
	"errors"
	"fmt"

	"github.com/goodtune/burner/internal/storage"
)

// ErrInvalidPeriod is returned for a period other than week or month.
var ErrInvalidPeriod = errors.New("invalid period")

// Period selects the report window.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name.
func ParsePeriod(value string) (Period, error) {
	switch p := Period(value); p {
	case PeriodWeek, PeriodMonth:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (must be week or month)", ErrInvalidPeriod, value)
	}
}

// GraphDays is the length of the summary and graph range.
func (p Period) GraphDays() int {
	if p == PeriodMonth {
		return 30
	}
	return 7
}

// HeatmapDays is the length of the heatmap range.
func (p Period) HeatmapDays() int {
	if p == PeriodMonth {
		return 365
	}
	return 30
}

// Statistics is a complete usage report.
type Statistics struct {
	Period   Period            `json:"period"`
	Timezone string            `json:"timezone"`
	Range    storage.DateRange `json:"range"`
	Summary  Summary           `json:"summary"`
	Graph    Graph             `json:"graph"`
	Heatmap  Heatmap           `json:"heatmap"`
	TopHosts TopHosts          `json:"top_hosts"`
}

// Summary holds the headline totals.
type Summary struct {
	TodaySeconds  int64 `json:"today_seconds"`
	PeriodSeconds int64 `json:"period_seconds"`
}

// DayTotal is the total across all hosts for one date.
type DayTotal struct {
	Date    string `json:"date"`
	Seconds int64  `json:"seconds"`
}

// Graph is a dense daily series over the summary range.
type Graph struct {
	Days int        `json:"days"`
	Data []DayTotal `json:"data"`
}

// HeatmapLevels are the quartile thresholds of the nonzero days in the heatmap range.
type HeatmapLevels struct {
	L1 int64 `json:"l1"`
	L2 int64 `json:"l2"`
	L3 int64 `json:"l3"`
	L4 int64 `json:"l4"`
}

// HeatmapEntry is one day of the heatmap.
type HeatmapEntry struct {
	Date    string `json:"date"`
	Seconds int64  `json:"seconds"`
	Level   int    `json:"level"`
}

// Heatmap is a dense daily series over the heatmap range.
type Heatmap struct {
	Days   int            `json:"days"`
	Levels HeatmapLevels  `json:"levels"`
	Data   []HeatmapEntry `json:"data"`
}

// TopHosts ranks hosts over the summary range. Total always equals len(Hosts).
type TopHosts struct {
	Total int                 `json:"total"`
	Hosts []storage.HostTotal `json:"hosts"`
}
