package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// ErrInvalidTimezone is returned when a timezone name cannot be resolved to an IANA zone.
var ErrInvalidTimezone = errors.New("invalid timezone")

// LoadZone resolves an IANA timezone name. The empty name and "Local" are rejected since both
// resolve to the server's own zone.
func LoadZone(name string) (*time.Location, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	loc, err := time.LoadLocation(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}
