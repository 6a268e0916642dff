// Package trip detects trips from speed samples and accumulates their
// distance and energy figures.
package trip

import (
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/leafdash/core/model"
)

const (
	// MinSpeedKmh is the speed at or above which the vehicle counts as moving.
	MinSpeedKmh = 1.0
	// Timeout is how long the vehicle must stay below MinSpeedKmh for the
	// trip to end.
	Timeout = 300 * time.Second
	// historySize bounds the completed trips kept in memory.
	historySize = 100
)

// Sample is one observation fed to the tracker. PowerKW is positive while
// discharging.
type Sample struct {
	Time       time.Time
	SpeedKmh   float64
	SoCPercent float64
	PowerKW    float64
}

type active struct {
	id         string
	start      time.Time
	lastSample time.Time
	lastMoving time.Time
	distanceKm float64
	consumed   float64
	regen      float64
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	current *active
	done    []model.Trip
	onEnd   func(model.Trip)
}

// NewTracker returns an idle tracker. onEnd, if set, is called for each
// completed trip outside the tracker lock.
func NewTracker(onEnd func(model.Trip)) *Tracker {
	return &Tracker{onEnd: onEnd}
}

// Update feeds a sample. Samples older than the previous one are ignored.
func (t *Tracker) Update(s Sample) {
	var ended *model.Trip
	t.mu.Lock()
	moving := s.SpeedKmh >= MinSpeedKmh
	switch {
	case t.current == nil && moving:
		t.current = &active{
			id:         fmt.Sprintf("trip_%d", s.Time.Unix()),
			start:      s.Time,
			lastSample: s.Time,
			lastMoving: s.Time,
		}
	case t.current != nil && !s.Time.Before(t.current.lastSample):
		t.integrate(s)
		if moving {
			t.current.lastMoving = s.Time
		} else if s.Time.Sub(t.current.lastMoving) >= Timeout {
			tr := t.finish(s.Time)
			ended = &tr
		}
	}
	t.mu.Unlock()
	if ended != nil && t.onEnd != nil {
		t.onEnd(*ended)
	}
}

func (t *Tracker) integrate(s Sample) {
	c := t.current
	dt := s.Time.Sub(c.lastSample)
	if dt > Timeout {
		// a gap in the feed; do not extrapolate across it
		dt = 0
	}
	h := dt.Hours()
	c.distanceKm += s.SpeedKmh * h
	if s.PowerKW > 0 {
		c.consumed += s.PowerKW * h
	} else {
		c.regen += -s.PowerKW * h
	}
	c.lastSample = s.Time
}

func (t *Tracker) finish(end time.Time) model.Trip {
	c := t.current
	tr := model.Trip{
		ID:          c.id,
		StartTime:   c.start,
		EndTime:     end,
		TripMetrics: metrics(c, end),
	}
	t.done = append([]model.Trip{tr}, t.done...)
	if len(t.done) > historySize {
		t.done = t.done[:historySize]
	}
	t.current = nil
	return tr
}

func metrics(c *active, at time.Time) model.TripMetrics {
	dur := at.Sub(c.start)
	m := model.TripMetrics{
		DurationMinutes:   dur.Minutes(),
		DistanceKm:        c.distanceKm,
		EnergyConsumedKWh: c.consumed,
		EnergyRegenKWh:    c.regen,
	}
	if dur > 0 {
		m.AvgSpeedKmh = c.distanceKm / dur.Hours()
	}
	if c.distanceKm > 0 {
		m.EfficiencyWhPerKm = (c.consumed - c.regen) * 1000 / c.distanceKm
	}
	return m
}

// Current returns the trip in progress as of now.
func (t *Tracker) Current(now time.Time) model.CurrentTrip {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return model.CurrentTrip{}
	}
	m := metrics(t.current, now)
	return model.CurrentTrip{
		Active:          true,
		ID:              t.current.id,
		StartTime:       t.current.start,
		DurationMinutes: m.DurationMinutes,
		Metrics:         m,
	}
}

// Recent returns up to limit completed trips, newest first. A non-positive
// limit returns ten.
func (t *Tracker) Recent(limit int) []model.Trip {
	if limit <= 0 {
		limit = 10
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if limit > len(t.done) {
		limit = len(t.done)
	}
	out := make([]model.Trip, limit)
	copy(out, t.done[:limit])
	return out
}
