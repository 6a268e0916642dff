package metrics

import (
	"time"

	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/core/presentation"
)

// ProjectionEvent describes one display update.
type ProjectionEvent struct {
	VehicleID  string
	Origin     model.Origin
	Seq        uint64
	Freshness  map[model.Group]presentation.Freshness
	GPSFix     presentation.FixState
	SoCPercent model.OptFloat
	PowerKW    model.OptFloat
	Duration   time.Duration
	Time       time.Time
}

// MetricsSink records display updates.
type MetricsSink interface {
	RecordProjection(ev ProjectionEvent) error
}

// FetchEvent captures one request to the telemetry API.
type FetchEvent struct {
	Endpoint string
	Latency  time.Duration
	Err      string
	Time     time.Time
}

// FetchRecorder records telemetry API requests.
type FetchRecorder interface {
	RecordFetch(ev FetchEvent) error
}

// DiscardEvent records a snapshot rejected by the ordering gate.
type DiscardEvent struct {
	Origin model.Origin
	Reason string
	Time   time.Time
}

// DiscardRecorder records discarded snapshots.
type DiscardRecorder interface {
	RecordDiscard(ev DiscardEvent) error
}

// PushStateEvent records a transition of the push connection.
type PushStateEvent struct {
	Transport string
	State     string
	Time      time.Time
}

// PushStateRecorder records push connection state changes.
type PushStateRecorder interface {
	RecordPushState(ev PushStateEvent) error
}

// ViewClientsRecorder records the number of connected display clients.
type ViewClientsRecorder interface {
	RecordViewClients(n int) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordProjection(ProjectionEvent) error { return nil }
func (NopSink) RecordFetch(FetchEvent) error           { return nil }
func (NopSink) RecordDiscard(DiscardEvent) error       { return nil }
func (NopSink) RecordPushState(PushStateEvent) error   { return nil }
func (NopSink) RecordViewClients(int) error            { return nil }
