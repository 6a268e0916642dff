package display

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kilianp07/leafdash/core/displaystate"
	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/infra/logger"
	"github.com/kilianp07/leafdash/internal/eventbus"
)

const writeWait = 5 * time.Second

// Stream pushes every published display state of one vehicle to WebSocket
// clients. A client first receives the current state, if any.
type Stream struct {
	bus       *eventbus.TypedBus[displaystate.State]
	store     displaystate.Store
	vehicleID string
	upgrader  websocket.Upgrader
	clients   atomic.Int64
	rec       coremetrics.ViewClientsRecorder
	log       logger.Logger
}

// NewStream serves GET /api/display/stream.
func NewStream(bus *eventbus.TypedBus[displaystate.State], store displaystate.Store, vehicleID string, sink coremetrics.MetricsSink) *Stream {
	s := &Stream{
		bus:       bus,
		store:     store,
		vehicleID: vehicleID,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// kiosks are served from other origins
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: logger.New("display-stream"),
	}
	if r, ok := sink.(coremetrics.ViewClientsRecorder); ok {
		s.rec = r
	}
	return s
}

// Clients returns the number of connected clients.
func (s *Stream) Clients() int { return int(s.clients.Load()) }

func (s *Stream) track(delta int64) {
	n := s.clients.Add(delta)
	if s.rec != nil {
		_ = s.rec.RecordViewClients(int(n))
	}
}

func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("upgrade: %v", err)
		return
	}
	session := uuid.NewString()
	sub := s.bus.Subscribe()
	s.track(1)
	s.log.Infof("client %s connected from %s", session, r.RemoteAddr)
	defer func() {
		s.bus.Unsubscribe(sub)
		s.track(-1)
		conn.Close()
		s.log.Infof("client %s disconnected", session)
	}()

	// reader: detect close and discard client frames
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	var last displaystate.State
	sent := false
	if st, ok, err := s.store.Get(r.Context(), s.vehicleID); err == nil && ok {
		if err := s.write(conn, st); err != nil {
			return
		}
		last, sent = st, true
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case st, ok := <-sub:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
				return
			}
			if st.VehicleID != s.vehicleID || (sent && superseded(st, last)) {
				continue
			}
			if err := s.write(conn, st); err != nil {
				s.log.Debugf("client %s write: %v", session, err)
				return
			}
			last, sent = st, true
		}
	}
}

// superseded reports whether st was queued before the already sent state.
// A lower seq from a later update means the controller restarted.
func superseded(st, sent displaystate.State) bool {
	return st.Seq < sent.Seq && !st.UpdatedAt.After(sent.UpdatedAt)
}

func (s *Stream) write(conn *websocket.Conn, st displaystate.State) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(st)
}
