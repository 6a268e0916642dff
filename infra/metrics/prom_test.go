package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/core/presentation"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, s.RecordProjection(coremetrics.ProjectionEvent{
		VehicleID:  "leaf",
		Origin:     model.OriginPoll,
		Freshness:  map[model.Group]presentation.Freshness{model.GroupBattery: presentation.Fresh},
		SoCPercent: model.Float(42),
	}))
	require.NoError(t, s.RecordFetch(coremetrics.FetchEvent{Endpoint: "status", Latency: time.Millisecond}))
	require.NoError(t, s.RecordFetch(coremetrics.FetchEvent{Endpoint: "status", Err: "boom"}))
	require.NoError(t, s.RecordDiscard(coremetrics.DiscardEvent{Origin: model.OriginPoll, Reason: "older"}))
	require.NoError(t, s.RecordPushState(coremetrics.PushStateEvent{Transport: "websocket", State: "subscribed"}))
	require.NoError(t, s.RecordViewClients(3))

	assert.Equal(t, 1.0, testutil.ToFloat64(s.projections.WithLabelValues("leaf", "poll")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.freshness.WithLabelValues("leaf", "battery")))
	assert.Equal(t, 0.0, testutil.ToFloat64(s.freshness.WithLabelValues("leaf", "gps")))
	assert.Equal(t, 42.0, testutil.ToFloat64(s.soc.WithLabelValues("leaf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.fetches.WithLabelValues("status", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.discarded.WithLabelValues("poll", "older")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.pushState.WithLabelValues("websocket")))
	assert.Equal(t, 3.0, testutil.ToFloat64(s.clients))
}

func TestPromSinkReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, a.RecordDiscard(coremetrics.DiscardEvent{Origin: model.OriginPush, Reason: "duplicate"}))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.discarded.WithLabelValues("push", "duplicate")))
}
