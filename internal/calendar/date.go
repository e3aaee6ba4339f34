package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the format of every local date stored or reported.
const DateLayout = "2006-01-02"

// LocalDate returns the calendar date of t in loc.
func LocalDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date. The result is midnight UTC, which makes day arithmetic
// on it free of DST effects.
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return date, nil
}

// AddDays shifts a date by n calendar days.
func AddDays(date string, n int) (string, error) {
	parsed, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return parsed.AddDate(0, 0, n).Format(DateLayout), nil
}

// Window returns the inclusive range of days dates ending on end.
func Window(end string, days int) (string, string, error) {
	if days < 1 {
		return "", "", fmt.Errorf("window must cover at least one day, got %d", days)
	}
	start, err := AddDays(end, -(days - 1))
	if err != nil {
		return "", "", err
	}
	return start, end, nil
}

// Days lists every date from first to last inclusive, in order.
func Days(first, last string) ([]string, error) {
	from, err := ParseDate(first)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(last)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("date range end %s before start %s", last, first)
	}

	days := make([]string, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days, nil
}
