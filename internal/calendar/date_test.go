package calendar

import (
	"testing"
	"time"
)

func TestWindow(t *testing.T) {
	start, end, err := Window("2024-03-05", 7)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if start != "2024-02-28" || end != "2024-03-05" {
		t.Fatalf("expected 2024-02-28..2024-03-05, got %s..%s", start, end)
	}

	if _, _, err := Window("2024-03-05", 0); err == nil {
		t.Fatal("expected error for empty window")
	}
}

func TestDays(t *testing.T) {
	days, err := Days("2023-12-30", "2024-01-02")
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	want := []string{"2023-12-30", "2023-12-31", "2024-01-01", "2024-01-02"}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %v", len(want), days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("day %d: expected %s, got %s", i, want[i], days[i])
		}
	}

	if _, err := Days("2024-01-02", "2024-01-01"); err == nil {
		t.Fatal("expected error for inverted range")
	}
	if _, err := Days("2024-13-01", "2024-01-01"); err == nil {
		t.Fatal("expected error for invalid date")
	}
}

func TestDaysAcrossDST(t *testing.T) {
	days, err := Days("2024-03-09", "2024-03-11")
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %v", days)
	}
}

func TestLocalDate(t *testing.T) {
	loc := mustZone(t, "Pacific/Auckland")
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := LocalDate(ts, loc); got != "2024-01-02" {
		t.Fatalf("expected 2024-01-02, got %s", got)
	}
}
