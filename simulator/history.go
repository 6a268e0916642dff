package simulator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/leafdash/core/model"
)

// DefaultHistorySize bounds the samples kept per field.
const DefaultHistorySize = 20000

type sample struct {
	at    time.Time
	value float64
}

// Row is one raw sample of an export.
type Row struct {
	Time        time.Time `json:"time"`
	Measurement string    `json:"measurement"`
	Field       string    `json:"field"`
	Value       float64   `json:"value"`
}

type recorded struct {
	measurement string
	field       string
	get         func(*model.Snapshot) model.OptFloat
}

func battery(f func(*model.Battery) model.OptFloat) func(*model.Snapshot) model.OptFloat {
	return func(s *model.Snapshot) model.OptFloat { return groupField(s.Battery, f) }
}

func groupField[G any](g *G, f func(*G) model.OptFloat) model.OptFloat {
	if g == nil {
		return model.OptFloat{}
	}
	return f(g)
}

var recordedFields = []recorded{
	{"battery", "soc_percent", battery(func(b *model.Battery) model.OptFloat { return b.SoCPercent })},
	{"battery", "pack_voltage", battery(func(b *model.Battery) model.OptFloat { return b.PackVoltage })},
	{"battery", "pack_current", battery(func(b *model.Battery) model.OptFloat { return b.PackCurrent })},
	{"battery", "temp_avg", battery(func(b *model.Battery) model.OptFloat { return b.TempAvg })},
	{"motor", "rpm", func(s *model.Snapshot) model.OptFloat {
		return groupField(s.Motor, func(m *model.Motor) model.OptFloat { return m.RPM })
	}},
	{"inverter", "temp_inverter", func(s *model.Snapshot) model.OptFloat {
		return groupField(s.Inverter, func(i *model.Inverter) model.OptFloat { return i.TempInverter })
	}},
	{"inverter", "temp_motor", func(s *model.Snapshot) model.OptFloat {
		return groupField(s.Inverter, func(i *model.Inverter) model.OptFloat { return i.TempMotor })
	}},
	{"inverter", "power_kw", func(s *model.Snapshot) model.OptFloat {
		return groupField(s.Inverter, func(i *model.Inverter) model.OptFloat { return i.PowerKW })
	}},
	{"charger", "charge_power_kw", func(s *model.Snapshot) model.OptFloat {
		return groupField(s.Charger, func(c *model.Charger) model.OptFloat { return c.ChargePowerKW })
	}},
	{"gps", "speed_kmh", func(s *model.Snapshot) model.OptFloat {
		return groupField(s.GPS, func(g *model.GPS) model.OptFloat { return g.SpeedKmh })
	}},
	{"body", "voltage_12v", func(s *model.Snapshot) model.OptFloat {
		return groupField(s.Body, func(b *model.Body) model.OptFloat { return b.Voltage12V })
	}},
}

// History keeps bounded raw samples per measurement and field.
type History struct {
	mu     sync.RWMutex
	max    int
	series map[string][]sample
}

// NewHistory returns an empty history keeping at most max samples per
// field. A non-positive max uses DefaultHistorySize.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{max: max, series: make(map[string][]sample)}
}

func seriesKey(measurement, field string) string { return measurement + "/" + field }

// Add appends a sample.
func (h *History) Add(measurement, field string, at time.Time, v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	k := seriesKey(measurement, field)
	s := append(h.series[k], sample{at: at, value: v})
	if len(s) > h.max {
		s = s[len(s)-h.max:]
	}
	h.series[k] = s
}

// Record stores the recorded fields of snap. Groups missing from the
// snapshot are skipped.
func (h *History) Record(at time.Time, snap *model.Snapshot) {
	if snap == nil {
		return
	}
	for _, r := range recordedFields {
		if v, ok := r.get(snap).Get(); ok {
			h.Add(r.measurement, r.field, at, v)
		}
	}
}

// Aggregate returns the mean of every window-sized bucket over the last
// duration, oldest first. Each point is stamped with its bucket end. Empty
// buckets are omitted.
func (h *History) Aggregate(measurement, field string, now time.Time, duration, window time.Duration) []model.HistoryPoint {
	if window <= 0 {
		return nil
	}
	start := now.Add(-duration)
	buckets := make(map[time.Time][]float64)
	h.mu.RLock()
	for _, s := range h.series[seriesKey(measurement, field)] {
		if s.at.Before(start) || s.at.After(now) {
			continue
		}
		b := s.at.Truncate(window)
		buckets[b] = append(buckets[b], s.value)
	}
	h.mu.RUnlock()

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	out := make([]model.HistoryPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.HistoryPoint{
			Time:  model.At(k.Add(window)),
			Value: model.Float(stat.Mean(buckets[k], nil)),
		})
	}
	return out
}

// Range returns the raw samples of every field of measurement between start
// and end inclusive, ordered by time then field. Zero bounds are open.
func (h *History) Range(measurement string, start, end time.Time) []Row {
	prefix := measurement + "/"
	var rows []Row
	h.mu.RLock()
	for k, series := range h.series {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		field := strings.TrimPrefix(k, prefix)
		for _, s := range series {
			if (!start.IsZero() && s.at.Before(start)) || (!end.IsZero() && s.at.After(end)) {
				continue
			}
			rows = append(rows, Row{Time: s.at, Measurement: measurement, Field: field, Value: s.value})
		}
	}
	h.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Time.Equal(rows[j].Time) {
			return rows[i].Time.Before(rows[j].Time)
		}
		return rows[i].Field < rows[j].Field
	})
	return rows
}

// ParseSpan parses durations such as 10m, 24h or 7d.
func ParseSpan(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || days <= 0 {
			return 0, fmt.Errorf("invalid span %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid span %q", s)
	}
	return d, nil
}
