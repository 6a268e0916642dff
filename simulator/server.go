package simulator

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kilianp07/leafdash/core/presentation"
	"github.com/kilianp07/leafdash/infra/source"
)

var errMissingMeasurement = errors.New("measurement is required")

// Handler serves the simulated telemetry API.
func (s *Simulator) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/historical/{measurement}/{field}", s.handleHistorical)
	mux.HandleFunc("GET /api/trips/current", s.handleCurrentTrip)
	mux.HandleFunc("GET /api/trips/recent", s.handleRecentTrips)
	mux.HandleFunc("GET /api/export/{format}", s.handleExport)
	mux.HandleFunc("GET /api/victron/cells", s.handleCells)
	mux.HandleFunc("/ws", s.handleRealtime)
	return mux
}

func (s *Simulator) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.Latest())
}

func (s *Simulator) handleHistorical(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	durationKey := q.Get("duration")
	if durationKey == "" {
		durationKey = "24h"
	}
	windowKey := q.Get("window")
	if windowKey == "" {
		windowKey = presentation.HistoryWindow(durationKey)
	}
	duration, err := ParseSpan(durationKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	window, err := ParseSpan(windowKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	measurement, field := r.PathValue("measurement"), r.PathValue("field")
	writeJSON(w, map[string]any{
		"measurement": measurement,
		"field":       field,
		"duration":    durationKey,
		"window":      windowKey,
		"data":        s.history.Aggregate(measurement, field, s.now(), duration, window),
	})
}

func (s *Simulator) handleCurrentTrip(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.vehicle.Trips().Current(s.now()))
}

func (s *Simulator) handleRecentTrips(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, s.vehicle.Trips().Recent(limit))
}

func (s *Simulator) handleCells(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.vehicle.Cells(s.now()))
}

func (s *Simulator) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	measurement := q.Get("measurement")
	if measurement == "" {
		writeError(w, http.StatusBadRequest, errMissingMeasurement)
		return
	}
	start, err := parseBound(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	end, err := parseBound(q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rows := s.history.Range(measurement, start, end)
	switch r.PathValue("format") {
	case source.FormatJSON:
		if rows == nil {
			rows = []Row{}
		}
		w.Header().Set("Content-Disposition", `attachment; filename="`+measurement+`.json"`)
		writeJSON(w, rows)
	case source.FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+measurement+`.csv"`)
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"time", "measurement", "field", "value"})
		for _, row := range rows {
			_ = cw.Write([]string{
				row.Time.UTC().Format(time.RFC3339Nano),
				row.Measurement,
				row.Field,
				strconv.FormatFloat(row.Value, 'f', -1, 64),
			})
		}
		cw.Flush()
	default:
		http.NotFound(w, r)
	}
}

// handleRealtime speaks the realtime protocol: connection_response on
// connect, then realtime_update frames once the client sent
// subscribe_realtime.
func (s *Simulator) handleRealtime(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("upgrade: %v", err)
		return
	}
	defer conn.Close()
	status, _ := json.Marshal(map[string]string{"status": "connected"})
	if err := conn.WriteJSON(source.Frame{Event: source.EventConnectionResponse, Data: status}); err != nil {
		return
	}

	subscribe := make(chan struct{}, 1)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var f source.Frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			if f.Event == source.EventSubscribeRealtime {
				select {
				case subscribe <- struct{}{}:
				default:
				}
			}
		}
	}()

	feed := s.feed.Subscribe()
	defer s.feed.Unsubscribe(feed)
	subscribed := false
	for {
		select {
		case <-closed:
			return
		case <-subscribe:
			subscribed = true
		case payload, ok := <-feed:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
				return
			}
			if !subscribed {
				continue
			}
			if err := conn.WriteJSON(source.Frame{Event: source.EventRealtimeUpdate, Data: payload}); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
