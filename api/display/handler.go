package display

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/leafdash/core/displaystate"
	"github.com/kilianp07/leafdash/core/presentation"
)

// NewDisplayHandler serves GET /api/display. The vehicle_id query parameter
// defaults to defaultVehicle; 404 is returned until a first display exists.
func NewDisplayHandler(store displaystate.Store, defaultVehicle string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := r.URL.Query().Get("vehicle_id")
		if id == "" {
			id = defaultVehicle
		}
		st, ok, err := store.Get(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "no display for "+id, http.StatusNotFound)
			return
		}
		writeJSON(w, st)
	})
}

// NewListHandler serves GET /api/displays with the latest state of every
// vehicle.
func NewListHandler(store displaystate.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		all, err := store.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if all == nil {
			all = []displaystate.State{}
		}
		writeJSON(w, all)
	})
}

// WindowResponse is the body of GET /api/history/window.
type WindowResponse struct {
	Duration string `json:"duration"`
	Window   string `json:"window"`
	Valid    bool   `json:"valid"`
}

// NewWindowHandler serves the history aggregation window for a duration so
// that other views pick the same buckets as the dashboard.
func NewWindowHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		d := r.URL.Query().Get("duration")
		writeJSON(w, WindowResponse{
			Duration: d,
			Window:   presentation.HistoryWindow(d),
			Valid:    presentation.ValidHistoryDuration(d),
		})
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
