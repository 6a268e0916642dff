package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/kilianp07/leafdash/auth"
	"github.com/kilianp07/leafdash/config"
	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/core/presentation"
	"github.com/kilianp07/leafdash/infra/logger"
)

// Export formats served by the upstream API.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.Code, e.Body)
}

// Client calls the telemetry REST endpoints.
type Client struct {
	base *url.URL
	http *http.Client
	rec  coremetrics.FetchRecorder
	log  logger.Logger
	now  func() time.Time
}

// NewClient builds a client for cfg.BaseURL. Fetch outcomes are recorded on
// sink when it implements FetchRecorder.
func NewClient(cfg config.SourceConfig, sink coremetrics.MetricsSink) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	hc := &http.Client{Timeout: cfg.Timeout()}
	if cfg.Auth.Enabled() {
		hc = auth.NewClientCred(cfg.Auth).Client(context.Background(), hc)
	}
	c := &Client{
		base: base,
		http: hc,
		log:  logger.New("source-client"),
		now:  time.Now,
	}
	if r, ok := sink.(coremetrics.FetchRecorder); ok {
		c.rec = r
	}
	return c, nil
}

func (c *Client) endpoint(q url.Values, elems ...string) string {
	u := *c.base
	u.Path = path.Join(append([]string{"/", c.base.Path}, elems...)...)
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// MaxBodyBytes bounds every JSON response read from the upstream API.
const MaxBodyBytes = 4 << 20

// fetch performs a GET and hands the body of a 2xx response to decode. The
// fetch is recorded once, failing when the request, the read or decode does.
func (c *Client) fetch(ctx context.Context, name, target string, decode func([]byte) error) (err error) {
	start := c.now()
	defer func() { c.record(name, start, err) }()
	resp, err := c.do(ctx, name, target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%s: read body: %w", name, err)
	}
	if len(body) > MaxBodyBytes {
		return fmt.Errorf("%s: body exceeds %d bytes", name, MaxBodyBytes)
	}
	return decode(body)
}

func (c *Client) do(ctx context.Context, name, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Endpoint: name, Code: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	return resp, nil
}

func (c *Client) record(name string, start time.Time, err error) {
	if c.rec == nil {
		return
	}
	ev := coremetrics.FetchEvent{Endpoint: name, Latency: c.now().Sub(start), Time: start}
	if err != nil {
		ev.Err = err.Error()
	}
	if rerr := c.rec.RecordFetch(ev); rerr != nil {
		c.log.Warnf("record fetch: %v", rerr)
	}
}

// Status fetches the current snapshot.
func (c *Client) Status(ctx context.Context) (model.Envelope, error) {
	var env model.Envelope
	err := c.fetch(ctx, "status", c.endpoint(nil, "api", "status"), func(body []byte) error {
		var err error
		if env, err = model.NewEnvelope(model.OriginPoll, c.now(), body); err != nil {
			return fmt.Errorf("status: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Envelope{}, err
	}
	return env, nil
}

// Historical fetches a series for the given duration key. The aggregation
// window is derived from the duration the same way the dashboard does.
func (c *Client) Historical(ctx context.Context, measurement, field, duration string) (model.HistorySeries, error) {
	q := url.Values{}
	q.Set("duration", duration)
	q.Set("window", presentation.HistoryWindow(duration))
	var out model.HistorySeries
	err := c.fetch(ctx, "historical", c.endpoint(q, "api", "historical", measurement, field), decodeInto("historical", &out))
	return out, err
}

// CurrentTrip fetches the trip in progress. A null body means no trip.
func (c *Client) CurrentTrip(ctx context.Context) (model.CurrentTrip, error) {
	var out model.CurrentTrip
	if err := c.fetch(ctx, "trips_current", c.endpoint(nil, "api", "trips", "current"), decodeInto("trips_current", &out)); err != nil {
		return out, err
	}
	if out.ID != "" {
		out.Active = true
	}
	return out, nil
}

// RecentTrips fetches up to limit completed trips, newest first. Both a bare
// array and an object with a trips member are accepted.
func (c *Client) RecentTrips(ctx context.Context, limit int) ([]model.Trip, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var trips []model.Trip
	err := c.fetch(ctx, "trips_recent", c.endpoint(q, "api", "trips", "recent"), func(body []byte) error {
		if err := json.Unmarshal(body, &trips); err == nil {
			return nil
		}
		var wrapped struct {
			Trips []model.Trip `json:"trips"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return fmt.Errorf("trips_recent: decode: %w", err)
		}
		trips = wrapped.Trips
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trips, nil
}

// Export streams an export of measurement between start and end to w and
// returns the number of bytes written.
func (c *Client) Export(ctx context.Context, format, measurement string, start, end time.Time, w io.Writer) (n int64, err error) {
	if format != FormatCSV && format != FormatJSON {
		return 0, fmt.Errorf("export: unsupported format %q", format)
	}
	q := url.Values{}
	q.Set("measurement", measurement)
	if !start.IsZero() {
		q.Set("start", start.UTC().Format(time.RFC3339))
	}
	if !end.IsZero() {
		q.Set("end", end.UTC().Format(time.RFC3339))
	}
	began := c.now()
	defer func() { c.record("export", began, err) }()
	resp, err := c.do(ctx, "export", c.endpoint(q, "api", "export", format))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err = io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("export: copy: %w", err)
	}
	return n, nil
}

// Cells fetches per-module cell extremes.
func (c *Client) Cells(ctx context.Context) (model.CellReport, error) {
	var out model.CellReport
	err := c.fetch(ctx, "cells", c.endpoint(nil, "api", "victron", "cells"), decodeInto("cells", &out))
	return out, err
}

func decodeInto(name string, v any) func([]byte) error {
	return func(body []byte) error {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("%s: decode: %w", name, err)
		}
		return nil
	}
}

// IsNotFound reports whether err is a 404 from the upstream API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
