package display

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/leafdash/auth"
	"github.com/kilianp07/leafdash/core/displaystate"
	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/core/presentation"
	"github.com/kilianp07/leafdash/internal/eventbus"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func state(t *testing.T, vehicle string, seq uint64, soc float64) displaystate.State {
	t.Helper()
	snap := &model.Snapshot{Battery: &model.Battery{Time: model.At(now), SoCPercent: model.Float(soc)}}
	return displaystate.State{
		VehicleID: vehicle,
		Seq:       seq,
		Origin:    model.OriginPush,
		Display:   presentation.Project(snap, now, presentation.DefaultConfig()),
		UpdatedAt: now,
	}
}

func TestDisplayHandler(t *testing.T) {
	store := displaystate.NewMemoryStore()
	h := NewDisplayHandler(store, "leaf")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/display", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d", rr.Code)
	}

	require.NoError(t, store.Set(context.Background(), state(t, "leaf", 1, 72)))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/display", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out displaystate.State
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	assert.Equal(t, "72", out.Display.Fields[presentation.KeySoC].Text)
	assert.Equal(t, presentation.Fresh, out.Display.Freshness[model.GroupBattery])

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/api/display", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestListHandler(t *testing.T) {
	store := displaystate.NewMemoryStore()
	rr := httptest.NewRecorder()
	NewListHandler(store).ServeHTTP(rr, httptest.NewRequest("GET", "/api/displays", nil))
	assert.JSONEq(t, `[]`, rr.Body.String())

	require.NoError(t, store.Set(context.Background(), state(t, "b", 1, 10)))
	require.NoError(t, store.Set(context.Background(), state(t, "a", 1, 20)))
	rr = httptest.NewRecorder()
	NewListHandler(store).ServeHTTP(rr, httptest.NewRequest("GET", "/api/displays", nil))
	var out []displaystate.State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].VehicleID)
}

func TestWindowHandler(t *testing.T) {
	cases := map[string]WindowResponse{
		"1h":  {Duration: "1h", Window: "1m", Valid: true},
		"6h":  {Duration: "6h", Window: "5m", Valid: true},
		"24h": {Duration: "24h", Window: "10m", Valid: true},
		"7d":  {Duration: "7d", Window: "1h", Valid: true},
		"2d":  {Duration: "2d", Window: "5m", Valid: false},
	}
	for d, want := range cases {
		rr := httptest.NewRecorder()
		NewWindowHandler().ServeHTTP(rr, httptest.NewRequest("GET", "/api/history/window?duration="+d, nil))
		var got WindowResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, want, got, d)
	}
}

func TestRequireJWT(t *testing.T) {
	j := auth.NewJWT(auth.JWTConf{Secret: "k"})
	mux := NewMux(Options{Store: displaystate.NewMemoryStore(), Bus: eventbus.NewTyped[displaystate.State](), VehicleID: "leaf", JWT: j})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("GET", "/api/display", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	tok, err := j.Issue("kiosk", time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/api/display", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// the window lookup stays public
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("GET", "/api/history/window?duration=1h", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

type clientsSink struct {
	coremetrics.NopSink
	counts chan int
}

func (c *clientsSink) RecordViewClients(n int) error {
	c.counts <- n
	return nil
}

func TestStream(t *testing.T) {
	store := displaystate.NewMemoryStore()
	bus := eventbus.NewTyped[displaystate.State]()
	require.NoError(t, store.Set(context.Background(), state(t, "leaf", 1, 50)))
	sink := &clientsSink{counts: make(chan int, 4)}
	stream := NewStream(bus, store, "leaf", sink)
	srv := httptest.NewServer(stream)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, 1, <-sink.counts)

	var first displaystate.State
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, uint64(1), first.Seq)

	require.Eventually(t, func() bool { return bus.Len() == 1 }, time.Second, 5*time.Millisecond)
	bus.Publish(state(t, "other", 9, 10))
	bus.Publish(state(t, "leaf", 2, 49))
	var next displaystate.State
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, uint64(2), next.Seq)
	assert.Equal(t, "49", next.Display.Text(presentation.KeySoC))

	conn.Close()
	select {
	case n := <-sink.counts:
		assert.Equal(t, 0, n)
	case <-time.After(2 * time.Second):
		t.Fatal("client count not decremented")
	}
	require.Eventually(t, func() bool { return stream.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

// racingStore lets a publish land on the bus between the subscription and
// the initial read.
type racingStore struct {
	displaystate.Store
	bus    *eventbus.TypedBus[displaystate.State]
	queued displaystate.State
}

func (s racingStore) Get(ctx context.Context, id string) (displaystate.State, bool, error) {
	s.bus.Publish(s.queued)
	return s.Store.Get(ctx, id)
}

func TestStreamSkipsStateOlderThanInitial(t *testing.T) {
	bus := eventbus.NewTyped[displaystate.State]()
	mem := displaystate.NewMemoryStore()
	stored := state(t, "leaf", 5, 60)
	stored.UpdatedAt = now.Add(time.Second)
	require.NoError(t, mem.Set(context.Background(), stored))
	queued := state(t, "leaf", 4, 61)

	srv := httptest.NewServer(NewStream(bus, racingStore{Store: mem, bus: bus, queued: queued}, "leaf", nil))
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var first displaystate.State
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, uint64(5), first.Seq)

	next := state(t, "leaf", 6, 59)
	next.UpdatedAt = now.Add(2 * time.Second)
	bus.Publish(next)
	var got displaystate.State
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, uint64(6), got.Seq, "queued seq 4 must not follow seq 5")
}

func TestSuperseded(t *testing.T) {
	sent := displaystate.State{Seq: 5, UpdatedAt: now}
	assert.True(t, superseded(displaystate.State{Seq: 4, UpdatedAt: now}, sent))
	assert.False(t, superseded(displaystate.State{Seq: 5, UpdatedAt: now.Add(time.Second)}, sent), "refresh of the same seq")
	assert.False(t, superseded(displaystate.State{Seq: 1, UpdatedAt: now.Add(time.Second)}, sent), "restarted controller")
}
