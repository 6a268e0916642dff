// Package ordering guards the display against snapshots that arrive out of
// order, e.g. a slow poll response landing after a newer push event.
package ordering

import (
	"sync"
	"time"

	"github.com/kilianp07/leafdash/core/model"
)

// Reason explains why a snapshot was not admitted.
type Reason string

const (
	ReasonOlder     Reason = "older"
	ReasonDuplicate Reason = "duplicate"
	ReasonEmpty     Reason = "empty"
	// ReasonReanchored accompanies an admitted snapshot that was older than
	// the last one but replaced it after an upstream clock step.
	ReasonReanchored Reason = "reanchored"
)

// DefaultMaxSkew bounds how far the gate trusts the upstream clock.
const DefaultMaxSkew = time.Minute

// Gate admits snapshots whose stamp is strictly newer than the last admitted
// one. Admitted snapshots are merged per group so that a group never goes
// back in time.
//
// An older snapshot is still admitted, and the gate re-anchored on it, when
// the last admitted stamp was more than the max skew ahead of its receive
// time, or when nothing has been admitted for longer than the max skew of
// receive time. Sequence numbers keep increasing across a re-anchor.
type Gate struct {
	mu       sync.Mutex
	seq      uint64
	last     time.Time
	received time.Time
	has      bool
	maxSkew  time.Duration
	groups   map[model.Group]groupState
}

type groupState struct {
	at    time.Time
	value *model.Snapshot // holder of the admitted group
}

// NewGate returns an empty gate using DefaultMaxSkew.
func NewGate() *Gate { return NewGateWithSkew(DefaultMaxSkew) }

// NewGateWithSkew returns an empty gate. A non-positive skew disables
// re-anchoring.
func NewGateWithSkew(maxSkew time.Duration) *Gate {
	return &Gate{maxSkew: maxSkew, groups: make(map[model.Group]groupState)}
}

// Admit decides on env. On success the returned envelope carries the merged
// snapshot and the next sequence number.
func (g *Gate) Admit(env model.Envelope) (model.Envelope, Reason, bool) {
	if env.Snapshot == nil {
		return env, ReasonEmpty, false
	}
	stamp := env.Stamp()

	g.mu.Lock()
	defer g.mu.Unlock()
	var reason Reason
	if g.has {
		switch {
		case stamp.Before(g.last):
			if !g.clockStepped(env.Received) {
				return env, ReasonOlder, false
			}
			g.groups = make(map[model.Group]groupState)
			reason = ReasonReanchored
		case stamp.Equal(g.last):
			return env, ReasonDuplicate, false
		}
	}
	merged := g.merge(env.Snapshot)
	g.last = stamp
	g.received = env.Received
	g.has = true
	g.seq++
	env.Snapshot = merged
	env.Seq = g.seq
	return env, reason, true
}

// clockStepped reports whether the anchor can no longer be trusted given an
// older snapshot received at the given time.
func (g *Gate) clockStepped(received time.Time) bool {
	if g.maxSkew <= 0 || received.IsZero() || g.received.IsZero() {
		return false
	}
	if g.last.Sub(g.received) > g.maxSkew {
		return true
	}
	return received.Sub(g.received) > g.maxSkew
}

// Last returns the stamp of the last admitted snapshot.
func (g *Gate) Last() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last, g.has
}

// Reset forgets all admitted state, e.g. when the upstream source changes.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.seq = 0
	g.last = time.Time{}
	g.received = time.Time{}
	g.has = false
	g.groups = make(map[model.Group]groupState)
	g.mu.Unlock()
}

// merge copies s and swaps in previously admitted groups whose own time is
// newer than the incoming group's. Groups without a parseable time are taken
// as is.
func (g *Gate) merge(s *model.Snapshot) *model.Snapshot {
	out := *s
	for _, grp := range model.Groups {
		ts, present := out.Group(grp).Stamp()
		if !present {
			continue
		}
		at, ok := ts.Time()
		if !ok {
			continue
		}
		if prev, seen := g.groups[grp]; seen && at.Before(prev.at) {
			copyGroup(&out, prev.value, grp)
			continue
		}
		g.groups[grp] = groupState{at: at, value: s}
	}
	return &out
}

func copyGroup(dst, src *model.Snapshot, grp model.Group) {
	switch grp {
	case model.GroupBattery:
		dst.Battery = src.Battery
	case model.GroupMotor:
		dst.Motor = src.Motor
	case model.GroupInverter:
		dst.Inverter = src.Inverter
	case model.GroupCharger:
		dst.Charger = src.Charger
	case model.GroupGPS:
		dst.GPS = src.GPS
	case model.GroupBody:
		dst.Body = src.Body
	}
}
