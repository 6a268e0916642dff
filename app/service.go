package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/leafdash/api/display"
	"github.com/kilianp07/leafdash/auth"
	"github.com/kilianp07/leafdash/config"
	"github.com/kilianp07/leafdash/core/journal"
	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/core/model"
	coremon "github.com/kilianp07/leafdash/core/monitoring"
	"github.com/kilianp07/leafdash/core/presentation"
	"github.com/kilianp07/leafdash/infra/cache"
	"github.com/kilianp07/leafdash/infra/logger"
	"github.com/kilianp07/leafdash/infra/metrics"
	"github.com/kilianp07/leafdash/infra/monitoring"
	"github.com/kilianp07/leafdash/infra/mqtt"
	"github.com/kilianp07/leafdash/infra/source"
)

// Service wires the telemetry source, the display controller and the
// display API from the configuration.
type Service struct {
	Controller *Controller
	Client     *source.Client
	Push       source.Push
	Poller     *source.Poller

	cfg        *config.Config
	sink       coremetrics.MetricsSink
	journal    journal.Store
	closeCache func() error
	monitor    coremon.Monitor
	jwt        *auth.JWT
	log        logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	return NewWithContext(context.Background(), cfg)
}

// NewWithContext is New with a context bounding backend connections.
func NewWithContext(ctx context.Context, cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	store, err := journal.New(cfg.Journal.Module())
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	displayStore, closeCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("display cache: %w", err)
	}

	ctrl := NewController(ControllerOptions{
		VehicleID: cfg.Source.VehicleID,
		Pipeline:  presentation.NewPipeline(cfg.Presentation),
		Store:     displayStore,
		Journal:   store,
		Sink:      sink,
		Monitor:   mon,
	})

	client, err := source.NewClient(cfg.Source, sink)
	if err != nil {
		_ = store.Close()
		_ = closeCache()
		return nil, fmt.Errorf("source client: %w", err)
	}

	push, err := newPush(cfg, sink, mon)
	if err != nil {
		_ = store.Close()
		_ = closeCache()
		return nil, err
	}

	svc := &Service{
		Controller: ctrl,
		Client:     client,
		Push:       push,
		cfg:        cfg,
		sink:       sink,
		journal:    store,
		closeCache: closeCache,
		monitor:    mon,
		log:        logg,
	}
	svc.Poller = source.NewPoller(client, cfg.Source.PollInterval(), push.Connected, svc.emit)
	if cfg.API.JWT.Enabled() {
		svc.jwt = auth.NewJWT(cfg.API.JWT)
	}
	return svc, nil
}

func newPush(cfg *config.Config, sink coremetrics.MetricsSink, mon coremon.Monitor) (source.Push, error) {
	switch cfg.Source.Push {
	case config.PushWebSocket:
		p, err := source.NewWebSocketPush(cfg.Source, sink)
		if err != nil {
			return nil, fmt.Errorf("websocket push: %w", err)
		}
		return p, nil
	case config.PushMQTT:
		client, err := mqtt.NewPahoClient(cfg.MQTT, mon)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		return source.NewMQTTPush(client, sink), nil
	default:
		return source.NoPush{}, nil
	}
}

func (s *Service) emit(env model.Envelope) {
	if err := s.Controller.Submit(env); err != nil && !errors.Is(err, ErrStopped) {
		s.log.Warnf("submit %s snapshot: %v", env.Origin, err)
	}
}

// Handler returns the display API handler.
func (s *Service) Handler() http.Handler {
	return display.NewMux(display.Options{
		Store:     s.Controller.Store(),
		Bus:       s.Controller.Bus(),
		VehicleID: s.cfg.Source.VehicleID,
		JWT:       s.jwt,
		Sink:      s.sink,
	})
}

// Run starts every component and blocks until the context is cancelled or
// one of them fails.
func (s *Service) Run(ctx context.Context) error {
	defer s.monitor.Recover()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.Controller.Run(ctx) })
	metrics.StartDisplayCollector(ctx, s.Controller.Bus(), s.sink)

	s.log.Infof("push transport %s, polling %s every %s", s.Push.Name(), s.cfg.Source.BaseURL, s.cfg.Source.PollInterval())
	g.Go(func() error { return s.Push.Run(ctx, s.emit) })

	s.Poller.Start(ctx)
	g.Go(func() error {
		<-ctx.Done()
		s.Poller.Stop()
		return nil
	})

	if addr := s.cfg.Metrics.ListenAddr; addr != "" && s.cfg.Metrics.HasSink("prometheus") {
		g.Go(func() error {
			if err := metrics.StartPromServer(ctx, addr, logger.New("prom")); err != nil {
				return fmt.Errorf("prom server: %w", err)
			}
			return nil
		})
	}
	if addr := s.cfg.API.ListenAddr; addr != "" {
		h := s.Handler()
		g.Go(func() error {
			if err := display.Serve(ctx, addr, h, logger.New("display-api")); err != nil {
				return fmt.Errorf("display api: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Controller.Bus().Close()
	var errs []error
	if err := s.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("journal: %w", err))
	}
	if err := s.closeCache(); err != nil {
		errs = append(errs, fmt.Errorf("display cache: %w", err))
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.monitor.Flush(2 * time.Second)
	return errors.Join(errs...)
}
