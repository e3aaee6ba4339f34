package stats

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/goodtune/burner/internal/calendar"
	"github.com/goodtune/burner/internal/clock"
	"github.com/goodtune/burner/internal/storage"
	"github.com/goodtune/burner/internal/storage/bolt"
	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T) *bolt.Store {
	t.Helper()
	store, err := bolt.Open(filepath.Join(t.TempDir(), "burner.bolt"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seed(t *testing.T, store storage.Store, host, date string, seconds int64) {
	t.Helper()
	ctx := context.Background()
	h, err := store.Buckets().FindOrCreateHost(ctx, host)
	if err != nil {
		t.Fatalf("create host: %v", err)
	}
	if err := store.Buckets().UpsertAdd(ctx, h.ID, date, seconds); err != nil {
		t.Fatalf("upsert: %v", err)
	}
}

func testClock(value string) *clock.TestClock {
	now, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return &clock.TestClock{CurrentTime: now}
}

func TestDateTotalsFillsGaps(t *testing.T) {
	store := openTestStore(t)
	seed(t, store, "example.com", "2024-01-03", 600)
	seed(t, store, "example.com", "2024-01-09", 999)

	totals, err := DateTotals(context.Background(), store.Buckets(), storage.DateRange{From: "2024-01-01", To: "2024-01-05"})
	if err != nil {
		t.Fatalf("date totals: %v", err)
	}

	want := []DayTotal{
		{"2024-01-01", 0},
		{"2024-01-02", 0},
		{"2024-01-03", 600},
		{"2024-01-04", 0},
		{"2024-01-05", 0},
	}
	if len(totals) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), totals)
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], totals[i])
		}
	}
}

func TestBuildWeek(t *testing.T) {
	store := openTestStore(t)
	seed(t, store, "a.example", "2024-01-10", 100)
	seed(t, store, "b.example", "2024-01-05", 200)
	seed(t, store, "a.example", "2024-01-03", 50)

	builder := NewBuilder(store.Buckets(), testClock("2024-01-10T12:00:00Z"), 0, zerolog.Nop())
	stats, err := builder.Build(context.Background(), PeriodWeek, "UTC")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if stats.Range.From != "2024-01-04" || stats.Range.To != "2024-01-10" {
		t.Fatalf("unexpected range %+v", stats.Range)
	}
	if stats.Graph.Days != 7 || len(stats.Graph.Data) != 7 {
		t.Fatalf("expected 7 graph days, got %d", len(stats.Graph.Data))
	}
	if stats.Heatmap.Days != 30 || len(stats.Heatmap.Data) != 30 {
		t.Fatalf("expected 30 heatmap days, got %d", len(stats.Heatmap.Data))
	}
	if stats.Heatmap.Data[0].Date != "2023-12-12" || stats.Heatmap.Data[29].Date != "2024-01-10" {
		t.Fatalf("unexpected heatmap bounds %s..%s", stats.Heatmap.Data[0].Date, stats.Heatmap.Data[29].Date)
	}
	if stats.Summary.TodaySeconds != 100 {
		t.Errorf("expected today 100, got %d", stats.Summary.TodaySeconds)
	}
	if stats.Summary.PeriodSeconds != 300 {
		t.Errorf("expected period 300, got %d", stats.Summary.PeriodSeconds)
	}
	if stats.Summary.TodaySeconds != stats.Graph.Data[len(stats.Graph.Data)-1].Seconds {
		t.Error("expected today to equal the last graph entry")
	}

	var heatmapTotal int64
	for _, entry := range stats.Heatmap.Data {
		heatmapTotal += entry.Seconds
	}
	if heatmapTotal != 350 {
		t.Errorf("expected heatmap total 350, got %d", heatmapTotal)
	}

	if stats.TopHosts.Total != 2 || len(stats.TopHosts.Hosts) != 2 {
		t.Fatalf("expected 2 top hosts, got %+v", stats.TopHosts)
	}
	if stats.TopHosts.Hosts[0].Host != "b.example" || stats.TopHosts.Hosts[0].Seconds != 200 {
		t.Errorf("expected b.example first, got %+v", stats.TopHosts.Hosts[0])
	}
	if stats.TopHosts.Hosts[1].Seconds != 100 {
		t.Errorf("expected summary range only for a.example, got %d", stats.TopHosts.Hosts[1].Seconds)
	}
}

func TestBuildMonthLengths(t *testing.T) {
	store := openTestStore(t)
	builder := NewBuilder(store.Buckets(), testClock("2024-03-01T00:00:00Z"), 5, zerolog.Nop())

	stats, err := builder.Build(context.Background(), PeriodMonth, "UTC")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(stats.Graph.Data) != 30 || len(stats.Heatmap.Data) != 365 {
		t.Fatalf("expected 30/365 days, got %d/%d", len(stats.Graph.Data), len(stats.Heatmap.Data))
	}
	if stats.Range.From != "2024-02-01" {
		t.Fatalf("expected range start 2024-02-01, got %s", stats.Range.From)
	}
	if stats.TopHosts.Total != 0 || len(stats.TopHosts.Hosts) != 0 {
		t.Fatalf("expected no top hosts, got %+v", stats.TopHosts)
	}
	if stats.Summary.TodaySeconds != 0 || stats.Summary.PeriodSeconds != 0 {
		t.Fatalf("expected zero totals, got %+v", stats.Summary)
	}
}

func TestBuildTodayFollowsTimezone(t *testing.T) {
	store := openTestStore(t)
	seed(t, store, "example.com", "2024-01-11", 42)

	builder := NewBuilder(store.Buckets(), testClock("2024-01-10T23:30:00Z"), 5, zerolog.Nop())

	tokyo, err := builder.Build(context.Background(), PeriodWeek, "Asia/Tokyo")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if tokyo.Range.To != "2024-01-11" || tokyo.Summary.TodaySeconds != 42 {
		t.Fatalf("expected Tokyo today 2024-01-11 with 42s, got %s with %d", tokyo.Range.To, tokyo.Summary.TodaySeconds)
	}

	utc, err := builder.Build(context.Background(), PeriodWeek, "UTC")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if utc.Range.To != "2024-01-10" || utc.Summary.TodaySeconds != 0 {
		t.Fatalf("expected UTC today 2024-01-10 with 0s, got %s with %d", utc.Range.To, utc.Summary.TodaySeconds)
	}
}

func TestBuildTopHostsLimit(t *testing.T) {
	store := openTestStore(t)
	for i := 0; i < 7; i++ {
		seed(t, store, fmt.Sprintf("host%d.example", i), "2024-01-10", int64(10*(i+1)))
	}

	builder := NewBuilder(store.Buckets(), testClock("2024-01-10T12:00:00Z"), 5, zerolog.Nop())
	stats, err := builder.Build(context.Background(), PeriodWeek, "UTC")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if stats.TopHosts.Total != 5 || len(stats.TopHosts.Hosts) != 5 {
		t.Fatalf("expected 5 top hosts, got %+v", stats.TopHosts)
	}
	if stats.TopHosts.Hosts[0].Host != "host6.example" {
		t.Fatalf("expected host6.example first, got %s", stats.TopHosts.Hosts[0].Host)
	}
}

func TestBuildRejectsBadInput(t *testing.T) {
	store := openTestStore(t)
	builder := NewBuilder(store.Buckets(), testClock("2024-01-10T12:00:00Z"), 5, zerolog.Nop())

	if _, err := builder.Build(context.Background(), Period("year"), "UTC"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := builder.Build(context.Background(), PeriodWeek, "Atlantis/Capital"); !errors.Is(err, calendar.ErrInvalidTimezone) {
		t.Fatalf("expected ErrInvalidTimezone, got %v", err)
	}
}

type failingBuckets struct {
	storage.BucketStore
}

var errUnavailable = errors.New("store unavailable")

func (failingBuckets) SumByDate(context.Context, storage.DateRange) (map[string]int64, error) {
	return nil, errUnavailable
}

func (failingBuckets) SumByHost(context.Context, storage.DateRange, int) ([]storage.HostTotal, error) {
	return nil, errUnavailable
}

func TestBuildFailsAtomically(t *testing.T) {
	builder := NewBuilder(failingBuckets{}, testClock("2024-01-10T12:00:00Z"), 5, zerolog.Nop())
	stats, err := builder.Build(context.Background(), PeriodWeek, "UTC")
	if !errors.Is(err, errUnavailable) {
		t.Fatalf("expected store error, got %v", err)
	}
	if stats != nil {
		t.Fatalf("expected no partial statistics, got %+v", stats)
	}
}

func TestParsePeriod(t *testing.T) {
	for _, value := range []string{"week", "month"} {
		if _, err := ParsePeriod(value); err != nil {
			t.Errorf("ParsePeriod(%q): %v", value, err)
		}
	}
	if _, err := ParsePeriod("Week"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}
