package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/core/presentation"
)

// PromSink records display pipeline events in Prometheus metrics.
type PromSink struct {
	projections *prometheus.CounterVec
	freshness   *prometheus.GaugeVec
	soc         *prometheus.GaugeVec
	fetches     *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	discarded   *prometheus.CounterVec
	pushState   *prometheus.GaugeVec
	clients     prometheus.Gauge
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		projections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leafdash_projections_total",
			Help: "Display updates by snapshot origin",
		}, []string{"vehicle_id", "origin"}),
		freshness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "leafdash_group_fresh",
			Help: "1 when the sensor group was fresh in the last projection",
		}, []string{"vehicle_id", "group"}),
		soc: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "leafdash_battery_soc_percent",
			Help: "Last displayed state of charge",
		}, []string{"vehicle_id"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leafdash_fetch_total",
			Help: "Telemetry API requests by endpoint and result",
		}, []string{"endpoint", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leafdash_fetch_latency_seconds",
			Help:    "Telemetry API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leafdash_discarded_snapshots_total",
			Help: "Snapshots rejected by the ordering gate",
		}, []string{"origin", "reason"}),
		pushState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "leafdash_push_connected",
			Help: "1 while the push transport is subscribed",
		}, []string{"transport"}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "leafdash_view_clients",
			Help: "Connected display stream clients",
		}),
	}
	var err error
	if s.projections, err = register(reg, s.projections); err != nil {
		return nil, err
	}
	if s.freshness, err = register(reg, s.freshness); err != nil {
		return nil, err
	}
	if s.soc, err = register(reg, s.soc); err != nil {
		return nil, err
	}
	if s.fetches, err = register(reg, s.fetches); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	if s.discarded, err = register(reg, s.discarded); err != nil {
		return nil, err
	}
	if s.pushState, err = register(reg, s.pushState); err != nil {
		return nil, err
	}
	if s.clients, err = register(reg, s.clients); err != nil {
		return nil, err
	}
	return s, nil
}

// register reuses an existing collector when the same metric was registered
// before, e.g. by a second sink in tests.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordProjection counts the update and exports group freshness.
func (s *PromSink) RecordProjection(ev coremetrics.ProjectionEvent) error {
	s.projections.WithLabelValues(ev.VehicleID, string(ev.Origin)).Inc()
	for _, g := range model.Groups {
		v := 0.0
		if ev.Freshness[g] == presentation.Fresh {
			v = 1
		}
		s.freshness.WithLabelValues(ev.VehicleID, string(g)).Set(v)
	}
	if soc, ok := ev.SoCPercent.Get(); ok {
		s.soc.WithLabelValues(ev.VehicleID).Set(soc)
	}
	return nil
}

// RecordFetch counts the request and observes its latency.
func (s *PromSink) RecordFetch(ev coremetrics.FetchEvent) error {
	result := "ok"
	if ev.Err != "" {
		result = "error"
	}
	s.fetches.WithLabelValues(ev.Endpoint, result).Inc()
	s.latency.WithLabelValues(ev.Endpoint).Observe(ev.Latency.Seconds())
	return nil
}

// RecordDiscard counts rejected snapshots.
func (s *PromSink) RecordDiscard(ev coremetrics.DiscardEvent) error {
	s.discarded.WithLabelValues(string(ev.Origin), ev.Reason).Inc()
	return nil
}

// RecordPushState sets the connection gauge.
func (s *PromSink) RecordPushState(ev coremetrics.PushStateEvent) error {
	v := 0.0
	if ev.State == "subscribed" {
		v = 1
	}
	s.pushState.WithLabelValues(ev.Transport).Set(v)
	return nil
}

// RecordViewClients sets the client gauge.
func (s *PromSink) RecordViewClients(n int) error {
	s.clients.Set(float64(n))
	return nil
}
