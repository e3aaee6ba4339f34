package storage

import (
	"fmt"
	"time"

	"github.com/goodtune/burner/internal/calendar"
)

// Host is a tracked network host.
type Host struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyBucket accumulates the seconds spent on one host during one local date.
type DailyBucket struct {
	HostID  int64  `json:"host_id"`
	Date    string `json:"date"`
	Seconds int64  `json:"duration_seconds"`
}

// HostTotal is a host's aggregate over a date range.
type HostTotal struct {
	HostID  int64  `json:"host_id"`
	Host    string `json:"host"`
	Seconds int64  `json:"seconds"`
}

// DateRange is an inclusive range of YYYY-MM-DD dates.
type DateRange struct {
	From string `json:"start"`
	To   string `json:"end"`
}

// Contains reports whether date falls inside the range.
func (r DateRange) Contains(date string) bool {
	return date >= r.From && date <= r.To
}

// Validate checks that both bounds are dates and in order.
func (r DateRange) Validate() error {
	from, err := calendar.ParseDate(r.From)
	if err != nil {
		return err
	}
	to, err := calendar.ParseDate(r.To)
	if err != nil {
		return err
	}
	if to.Before(from) {
		return fmt.Errorf("date range end %s before start %s", r.To, r.From)
	}
	return nil
}
