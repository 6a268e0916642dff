package source

import (
	"context"
	"encoding/json"
	"time"

	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/infra/logger"
)

// Emit receives every decoded snapshot in arrival order.
type Emit func(model.Envelope)

// Push is a realtime snapshot transport. Run blocks until ctx is done and
// reconnects on its own.
type Push interface {
	Name() string
	Run(ctx context.Context, emit Emit) error
	Connected() bool
}

// Frame is one message of the realtime WebSocket protocol.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Realtime protocol events.
const (
	EventSubscribeRealtime  = "subscribe_realtime"
	EventConnectionResponse = "connection_response"
	EventRealtimeUpdate     = "realtime_update"
)

// stateReporter logs push state transitions and records them as metrics.
func stateReporter(transport string, log logger.Logger, sink coremetrics.MetricsSink) func(from, to string) {
	rec, _ := sink.(coremetrics.PushStateRecorder)
	return func(from, to string) {
		log.Infof("%s push %s -> %s", transport, from, to)
		if rec != nil {
			_ = rec.RecordPushState(coremetrics.PushStateEvent{Transport: transport, State: to, Time: time.Now()})
		}
	}
}

// NoPush is used when realtime push is disabled; the poller then runs on
// every tick.
type NoPush struct{}

func (NoPush) Name() string { return "none" }

func (NoPush) Run(ctx context.Context, _ Emit) error {
	<-ctx.Done()
	return nil
}

func (NoPush) Connected() bool { return false }
