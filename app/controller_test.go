package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/leafdash/core/journal"
	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/core/presentation"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type discardSink struct {
	coremetrics.NopSink
	mu      sync.Mutex
	reasons []string
}

func (d *discardSink) RecordDiscard(ev coremetrics.DiscardEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reasons = append(d.reasons, ev.Reason)
	return nil
}

type memJournal struct {
	journal.NopStore
	mu   sync.Mutex
	recs []journal.Record
}

func (m *memJournal) Append(_ context.Context, r journal.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, r)
	return nil
}

func envAt(t *testing.T, origin model.Origin, at time.Time, soc float64) model.Envelope {
	t.Helper()
	ts := at.Format(time.RFC3339)
	raw := fmt.Sprintf(`{"timestamp":%q,"battery":{"time":%q,"soc_percent":%v}}`, ts, ts, soc)
	env, err := model.NewEnvelope(origin, at, []byte(raw))
	require.NoError(t, err)
	return env
}

func TestControllerOrdersPushAndPoll(t *testing.T) {
	clk := &clock{now: t0.Add(time.Second)}
	sink := &discardSink{}
	jr := &memJournal{}
	c := NewController(ControllerOptions{Sink: sink, Journal: jr, Now: clk.Now})
	ctx := context.Background()

	st, ok := c.Process(ctx, envAt(t, model.OriginPush, t0, 64))
	require.True(t, ok)
	assert.Equal(t, uint64(1), st.Seq)
	assert.Equal(t, "64", st.Display.Text(presentation.KeySoC))

	// a poll response for an older observation lands late
	_, ok = c.Process(ctx, envAt(t, model.OriginPoll, t0.Add(-2*time.Second), 70))
	assert.False(t, ok)
	_, ok = c.Process(ctx, envAt(t, model.OriginPoll, t0, 64))
	assert.False(t, ok)

	got, found, err := c.Store().Get(ctx, "leaf")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "64", got.Display.Text(presentation.KeySoC))
	assert.Equal(t, []string{"older", "duplicate"}, sink.reasons)
	assert.Len(t, jr.recs, 1)
}

func TestControllerRefreshAgesIntoStale(t *testing.T) {
	clk := &clock{now: t0}
	c := NewController(ControllerOptions{Now: clk.Now})
	ctx := context.Background()
	sub := c.Bus().SubscribeN(4)

	_, ok := c.Process(ctx, envAt(t, model.OriginPush, t0, 50))
	require.True(t, ok)
	st := <-sub
	assert.Equal(t, presentation.Fresh, st.Display.Freshness[model.GroupBattery])

	clk.Set(t0.Add(61 * time.Second))
	c.Refresh(ctx)
	st = <-sub
	assert.Equal(t, presentation.Stale, st.Display.Freshness[model.GroupBattery])
	assert.Equal(t, presentation.NoData, st.Display.Text(presentation.KeySoC))
}

func TestControllerRefreshWithoutSnapshot(t *testing.T) {
	c := NewController(ControllerOptions{})
	sub := c.Bus().Subscribe()
	c.Refresh(context.Background())
	select {
	case <-sub:
		t.Fatal("nothing should be published before the first snapshot")
	default:
	}
}

func TestControllerReplayUsesReceiveTime(t *testing.T) {
	clk := &clock{now: t0.Add(24 * time.Hour)}
	jr := &memJournal{}
	c := NewController(ControllerOptions{Journal: jr, Now: clk.Now})
	env := envAt(t, model.OriginReplay, t0, 42)
	st, ok := c.Process(context.Background(), env)
	require.True(t, ok)
	assert.Equal(t, presentation.Fresh, st.Display.Freshness[model.GroupBattery])
	assert.True(t, st.UpdatedAt.Equal(t0))
	assert.Empty(t, jr.recs, "replayed envelopes are not journaled again")
}

func TestControllerRunAndSubmit(t *testing.T) {
	c := NewController(ControllerOptions{Refresh: 10 * time.Millisecond})
	sub := c.Bus().SubscribeN(32)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, c.Submit(envAt(t, model.OriginPush, now, 80)))

	deadline := time.After(2 * time.Second)
	seen := 0
	for seen < 3 {
		select {
		case st := <-sub:
			assert.Equal(t, uint64(1), st.Seq)
			seen++
		case <-deadline:
			t.Fatalf("expected the first projection and refreshes, got %d", seen)
		}
	}

	cancel()
	require.NoError(t, <-errCh)
	assert.ErrorIs(t, c.Submit(envAt(t, model.OriginPush, now.Add(time.Second), 81)), ErrStopped)
}
