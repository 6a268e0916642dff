// Package simulator is a development fixture of the upstream telemetry API.
// A simulated vehicle drives a repeating cycle and its snapshots are served
// over the same HTTP and WebSocket endpoints the dashboard consumes, and
// optionally published on MQTT.
package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/leafdash/config"
	"github.com/kilianp07/leafdash/infra/logger"
	"github.com/kilianp07/leafdash/internal/eventbus"
)

// Publisher sends snapshots to a broker. *mqtt.PahoClient implements it.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
	IsConnected() bool
	Topic() string
}

// Options wires a Simulator. Publisher and Now are optional.
type Options struct {
	Config    config.SimulatorConfig
	Publisher Publisher
	Now       func() time.Time
}

// Simulator owns the simulated vehicle, its history and the realtime feed.
type Simulator struct {
	cfg       config.SimulatorConfig
	vehicle   *Vehicle
	history   *History
	feed      *eventbus.TypedBus[[]byte]
	publisher Publisher
	now       func() time.Time
	log       logger.Logger
	upgrader  websocket.Upgrader

	mu     sync.RWMutex
	latest []byte
}

// New builds a simulator and takes a first snapshot.
func New(opts Options) *Simulator {
	cfg := opts.Config
	cfg.SetDefaults()
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Simulator{
		cfg:       cfg,
		vehicle:   NewVehicle(cfg.Hostname, cfg.InitialSoC, cfg.Seed),
		history:   NewHistory(0),
		feed:      eventbus.NewTyped[[]byte](),
		publisher: opts.Publisher,
		now:       opts.Now,
		log:       logger.New("simulator"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.Tick()
	return s
}

// Vehicle returns the simulated vehicle.
func (s *Simulator) Vehicle() *Vehicle { return s.vehicle }

// History returns the recorded samples.
func (s *Simulator) History() *History { return s.history }

// Latest returns the last snapshot as JSON.
func (s *Simulator) Latest() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Tick advances the vehicle, records and broadcasts the new snapshot and
// returns it as JSON.
func (s *Simulator) Tick() []byte {
	now := s.now()
	s.vehicle.Step(now)
	snap := s.vehicle.Snapshot(now)
	s.history.Record(now, snap)
	payload, err := json.Marshal(snap)
	if err != nil {
		s.log.Errorf("encode snapshot: %v", err)
		return nil
	}
	s.mu.Lock()
	s.latest = payload
	s.mu.Unlock()
	s.feed.Publish(payload)
	if s.publisher != nil && s.publisher.IsConnected() {
		if err := s.publisher.Publish(s.publisher.Topic(), payload, false); err != nil {
			s.log.Warnf("publish snapshot: %v", err)
		}
	}
	return payload
}

// Run ticks every TickMS and serves the API on ListenAddr until ctx is
// done. An empty ListenAddr only ticks.
func (s *Simulator) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(time.Duration(s.cfg.TickMS) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.Tick()
			}
		}
	})
	if s.cfg.ListenAddr != "" {
		g.Go(func() error { return s.serve(ctx) })
	}
	err := g.Wait()
	s.feed.Close()
	return err
}

func (s *Simulator) serve(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.ListenAddr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		// websocket handlers return once the feed closes
		s.feed.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("simulator shutdown: %v", err)
		}
		cancel()
	}()
	s.log.Infof("simulated telemetry API on %s", s.cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the realtime feed.
func (s *Simulator) Close() { s.feed.Close() }
