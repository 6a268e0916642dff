// Package journal records admitted telemetry envelopes so that a session can
// be inspected or replayed through the presentation pipeline later.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/leafdash/core/factory"
	"github.com/kilianp07/leafdash/core/model"
)

// Record is one journaled envelope.
type Record struct {
	Seq      uint64          `json:"seq"`
	Origin   model.Origin    `json:"origin"`
	Received time.Time       `json:"received"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// FromEnvelope builds a record, re-encoding the snapshot when the raw
// payload is missing.
func FromEnvelope(env model.Envelope) (Record, error) {
	raw := env.Raw
	if len(raw) == 0 {
		b, err := json.Marshal(env.Snapshot)
		if err != nil {
			return Record{}, fmt.Errorf("encode snapshot: %w", err)
		}
		raw = b
	}
	return Record{Seq: env.Seq, Origin: env.Origin, Received: env.Received, Snapshot: raw}, nil
}

// Envelope decodes the record back into an envelope.
func (r Record) Envelope() (model.Envelope, error) {
	env, err := model.NewEnvelope(r.Origin, r.Received, r.Snapshot)
	if err != nil {
		return model.Envelope{}, fmt.Errorf("record %d: %w", r.Seq, err)
	}
	env.Seq = r.Seq
	return env, nil
}

// Query filters records. Zero values match everything.
type Query struct {
	Start  time.Time
	End    time.Time
	Origin model.Origin
	Limit  int
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Received.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Received.After(q.End) {
		return false
	}
	if q.Origin != "" && r.Origin != q.Origin {
		return false
	}
	return true
}

// finish sorts by receive time and applies the limit, keeping the oldest.
func (q Query) finish(res []Record) []Record {
	sort.SliceStable(res, func(i, j int) bool { return res[i].Received.Before(res[j].Received) })
	if q.Limit > 0 && len(res) > q.Limit {
		res = res[:q.Limit]
	}
	return res
}

// Store persists records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore drops everything.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }

// Options configures the file based backends.
type Options struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

var registry = factory.NewRegistry[Store]()

func init() {
	_ = registry.Register("none", func(map[string]any) (Store, error) { return NopStore{}, nil })
	_ = registry.Register("jsonl", func(conf map[string]any) (Store, error) {
		var o Options
		if err := factory.Decode(conf, &o); err != nil {
			return nil, err
		}
		return NewJSONLStore(o.Path)
	})
	_ = registry.Register("rotating", func(conf map[string]any) (Store, error) {
		var o Options
		if err := factory.Decode(conf, &o); err != nil {
			return nil, err
		}
		return NewRotatingJSONLStore(o.Path, o.MaxSizeMB, o.MaxBackups, o.MaxAgeDays)
	})
	_ = registry.Register("sqlite", func(conf map[string]any) (Store, error) {
		var o Options
		if err := factory.Decode(conf, &o); err != nil {
			return nil, err
		}
		return NewSQLiteStore(o.Path)
	})
}

// New builds the backend named by cfg.Type.
func New(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		return NopStore{}, nil
	}
	return registry.Create(cfg)
}

// Backends lists the registered backend names.
func Backends() []string { return registry.Names() }
