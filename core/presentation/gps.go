package presentation

import "github.com/kilianp07/leafdash/core/model"

// FixState is the GPS panel state.
type FixState string

const (
	FixOffline   FixState = "offline"
	FixSearching FixState = "searching"
	FixAcquired  FixState = "acquired"
)

// ValidFix reports whether g carries a usable position: both coordinates
// present and non-zero, and a positive fix quality when one is reported.
func ValidFix(g *model.GPS) bool {
	if g == nil {
		return false
	}
	lat, okLat := g.Latitude.Get()
	lon, okLon := g.Longitude.Get()
	if !okLat || !okLon || lat == 0 || lon == 0 {
		return false
	}
	if q, ok := g.FixQuality.Get(); ok && q <= 0 {
		return false
	}
	return true
}

// GPSFix returns the panel state for a group that is (or is not) rendered.
func GPSFix(g *model.GPS, rendered bool) FixState {
	switch {
	case !rendered:
		return FixOffline
	case ValidFix(g):
		return FixAcquired
	default:
		return FixSearching
	}
}
