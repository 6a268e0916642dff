// Package display serves the projected dashboard to kiosk clients: the
// latest display mapping, a WebSocket stream of updates and the history
// window lookup.
package display

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kilianp07/leafdash/auth"
	"github.com/kilianp07/leafdash/core/displaystate"
	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/infra/logger"
	"github.com/kilianp07/leafdash/internal/eventbus"
)

// Options wires the display API.
type Options struct {
	Store     displaystate.Store
	Bus       *eventbus.TypedBus[displaystate.State]
	VehicleID string
	// JWT enables bearer auth on every route when set.
	JWT  *auth.JWT
	Sink coremetrics.MetricsSink
}

// NewMux registers the display routes.
func NewMux(opts Options) *http.ServeMux {
	mux := http.NewServeMux()
	protect := func(h http.Handler) http.Handler { return RequireJWT(opts.JWT, h) }
	mux.Handle("/api/display", protect(NewDisplayHandler(opts.Store, opts.VehicleID)))
	mux.Handle("/api/displays", protect(NewListHandler(opts.Store)))
	mux.Handle("/api/display/stream", protect(NewStream(opts.Bus, opts.Store, opts.VehicleID, opts.Sink)))
	mux.Handle("/api/history/window", NewWindowHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// RequireJWT rejects requests without a valid bearer token. A nil verifier
// disables the check.
func RequireJWT(j *auth.JWT, next http.Handler) http.Handler {
	if j == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := j.FromRequest(r); err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="leafdash"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Serve runs an HTTP server for h until ctx is canceled.
func Serve(ctx context.Context, addr string, h http.Handler, log logger.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("display api shutdown: %v", err)
		}
	}()
	log.Infof("display api listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
