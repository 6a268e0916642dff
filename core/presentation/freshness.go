package presentation

import (
	"time"

	"github.com/kilianp07/leafdash/core/model"
)

// Freshness classifies a sensor group for one projection.
type Freshness int

const (
	// Absent means the group was not in the snapshot.
	Absent Freshness = iota
	// Stale means the group is present but its time is missing, unparseable
	// or older than the max age.
	Stale
	// Fresh means the group may be displayed.
	Fresh
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "absent"
	}
}

func (f Freshness) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// ComputeFreshness classifies g at now. A group exactly maxAge old is still
// fresh; timestamps in the future are fresh. A non-positive maxAge falls back
// to the default window.
func ComputeFreshness(g model.Stamped, now time.Time, maxAge time.Duration) Freshness {
	if g == nil {
		return Absent
	}
	ts, present := g.Stamp()
	if !present {
		return Absent
	}
	t, ok := ts.Time()
	if !ok {
		return Stale
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAgeSeconds * time.Second
	}
	if now.Sub(t) > maxAge {
		return Stale
	}
	return Fresh
}
