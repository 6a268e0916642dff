package metrics

import (
	"context"

	"github.com/kilianp07/leafdash/core/displaystate"
	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/core/presentation"
	"github.com/kilianp07/leafdash/internal/eventbus"
)

// StartDisplayCollector subscribes to the display bus and records one
// ProjectionEvent per published state. It stops when the context is
// canceled or the bus is closed.
func StartDisplayCollector(ctx context.Context, bus *eventbus.TypedBus[displaystate.State], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case st, ok := <-sub:
				if !ok {
					return
				}
				_ = sink.RecordProjection(ProjectionFromState(st))
			}
		}
	}()
}

// ProjectionFromState derives the metrics event for a published display
// state. SoC and power are taken from the raw snapshot so that a stale group
// still reports nothing.
func ProjectionFromState(st displaystate.State) coremetrics.ProjectionEvent {
	ev := coremetrics.ProjectionEvent{
		VehicleID: st.VehicleID,
		Origin:    st.Origin,
		Seq:       st.Seq,
		Freshness: st.Display.Freshness,
		GPSFix:    st.Display.GPSFix,
		Duration:  st.UpdatedAt.Sub(st.Display.ProjectedAt),
		Time:      st.UpdatedAt,
	}
	if ev.Duration < 0 {
		ev.Duration = 0
	}
	if st.Display.Freshness[model.GroupBattery] != presentation.Fresh || len(st.Snapshot) == 0 {
		return ev
	}
	snap, err := model.ParseSnapshot(st.Snapshot)
	if err != nil || snap.Battery == nil {
		return ev
	}
	ev.SoCPercent = snap.Battery.SoCPercent
	ev.PowerKW = presentation.BatteryPower(snap.Battery)
	return ev
}
