package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/core/presentation"
	"github.com/kilianp07/leafdash/infra/logger"
)

// InfluxSink writes display pipeline events to an InfluxDB instance using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordProjection writes one display_update point with per-group freshness.
func (s *InfluxSink) RecordProjection(ev coremetrics.ProjectionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("display_update").
		AddTag("vehicle_id", ev.VehicleID).
		AddTag("origin", string(ev.Origin)).
		AddTag("gps_fix", string(ev.GPSFix)).
		AddField("seq", int64(ev.Seq)).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000))
	for _, g := range model.Groups {
		p = p.AddField("fresh_"+string(g), ev.Freshness[g] == presentation.Fresh)
	}
	if soc, ok := ev.SoCPercent.Get(); ok {
		p = p.AddField("soc_percent", round3(soc))
	}
	if kw, ok := ev.PowerKW.Get(); ok {
		p = p.AddField("power_kw", round3(kw))
	}
	p = p.SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordFetch writes a telemetry_fetch point.
func (s *InfluxSink) RecordFetch(ev coremetrics.FetchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("telemetry_fetch").
		AddTag("endpoint", ev.Endpoint).
		AddTag("ok", boolTag(ev.Err == "")).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000))
	if ev.Err != "" {
		p = p.AddField("error", ev.Err)
	}
	p = p.SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDiscard writes a snapshot_discarded point.
func (s *InfluxSink) RecordDiscard(ev coremetrics.DiscardEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("snapshot_discarded").
		AddTag("origin", string(ev.Origin)).
		AddTag("reason", ev.Reason).
		AddField("count", 1).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
