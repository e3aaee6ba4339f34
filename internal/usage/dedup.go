package usage

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Dedup remembers session IDs from committed batches for a bounded window. A nil Dedup
// remembers nothing.
type Dedup struct {
	cache *expirable.LRU[string, struct{}]
}

// NewDedup returns a window of the given capacity and TTL, or nil when window is not
// positive.
func NewDedup(capacity int, window time.Duration) *Dedup {
	if window <= 0 {
		return nil
	}
	if capacity <= 0 {
		capacity = DefaultDedupCapacity
	}
	return &Dedup{cache: expirable.NewLRU[string, struct{}](capacity, nil, window)}
}

// Seen reports whether id was remembered and has not expired.
func (d *Dedup) Seen(id string) bool {
	if d == nil {
		return false
	}
	_, ok := d.cache.Get(id)
	return ok
}

// Remember records ids.
func (d *Dedup) Remember(ids []string) {
	if d == nil {
		return
	}
	for _, id := range ids {
		d.cache.Add(id, struct{}{})
	}
}

// Len returns the number of remembered ids.
func (d *Dedup) Len() int {
	if d == nil {
		return 0
	}
	return d.cache.Len()
}
