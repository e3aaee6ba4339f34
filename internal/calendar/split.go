// Package calendar partitions UTC intervals into local calendar days.
package calendar

import "time"

// Segment is the share of an interval that falls on one local calendar date.
type Segment struct {
	Date    string `json:"date"`
	Seconds int64  `json:"seconds"`
}

// Split partitions [start, end) into one segment per local date in loc.
//
// Durations are absolute elapsed seconds, so a day with a DST transition contributes 23 or 25
// hours. Offsets are floored relative to start, which keeps the sum equal to the whole
// seconds in end-start even when the bounds carry sub-second precision. An empty or inverted
// interval yields nil.
func Split(start, end time.Time, loc *time.Location) []Segment {
	if !end.After(start) {
		return nil
	}

	total := int64(end.Sub(start) / time.Second)
	var (
		segments []Segment
		emitted  int64
	)
	for current := start; current.Before(end); {
		local := current.In(loc)
		segEnd := nextMidnight(local, loc)
		if segEnd.After(end) {
			segEnd = end
		}

		offset := total
		if segEnd.Before(end) {
			offset = int64(segEnd.Sub(start) / time.Second)
		}
		segments = append(segments, Segment{
			Date:    local.Format(DateLayout),
			Seconds: offset - emitted,
		})
		emitted = offset
		current = segEnd
	}
	return segments
}

// nextMidnight returns the first instant of the local day after local's date.
func nextMidnight(local time.Time, loc *time.Location) time.Time {
	y, m, d := local.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, loc)

	// A zone that skips 00:00 may normalize the missing midnight back into the current day.
	// The day then really starts at the transition that ends the current zone period.
	for !next.After(local) || sameDate(next.In(loc), local) {
		_, periodEnd := next.ZoneBounds()
		if periodEnd.IsZero() || !periodEnd.After(next) {
			next = next.Add(time.Hour)
			continue
		}
		next = periodEnd
	}
	return next
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
