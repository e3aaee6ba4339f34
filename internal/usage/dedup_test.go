package usage

import (
	"testing"
	"time"
)

func TestDedupRemember(t *testing.T) {
	d := NewDedup(2, time.Hour)
	d.Remember([]string{"a", "b"})
	if !d.Seen("a") || !d.Seen("b") {
		t.Fatal("expected remembered ids seen")
	}
	if d.Seen("c") {
		t.Fatal("expected unknown id unseen")
	}

	d.Remember([]string{"c"})
	if d.Len() != 2 {
		t.Fatalf("expected capacity bound 2, got %d", d.Len())
	}
	if !d.Seen("c") {
		t.Fatal("expected newest id kept")
	}
}

func TestDedupDisabled(t *testing.T) {
	d := NewDedup(10, 0)
	if d != nil {
		t.Fatal("expected nil dedup for zero window")
	}
	d.Remember([]string{"a"})
	if d.Seen("a") || d.Len() != 0 {
		t.Fatal("expected nil dedup to remember nothing")
	}
}
