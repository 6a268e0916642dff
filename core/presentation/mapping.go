package presentation

import (
	"time"

	"github.com/kilianp07/leafdash/core/model"
)

// NoData is the text shown for any value that is unknown, absent or stale.
// It never stands for zero.
const NoData = "--"

// Field is one formatted display value.
type Field struct {
	Text     string   `json:"text"`
	Unit     string   `json:"unit,omitempty"`
	Category Category `json:"category,omitempty"`
	Valid    bool     `json:"valid"`
}

// Missing is the no-data field.
var Missing = Field{Text: NoData}

// DisplayMapping is the complete output of a projection.
type DisplayMapping struct {
	Fields      map[string]Field                `json:"fields"`
	Freshness   map[model.Group]Freshness       `json:"freshness"`
	Indicators  map[model.Group]model.Indicator `json:"indicators,omitempty"`
	GPSFix      FixState                        `json:"gps_fix"`
	Stamp       time.Time                       `json:"stamp,omitempty"`
	ProjectedAt time.Time                       `json:"projected_at"`
}

func newMapping(now time.Time) DisplayMapping {
	return DisplayMapping{
		Fields:      make(map[string]Field, 64),
		Freshness:   make(map[model.Group]Freshness, len(model.Groups)),
		GPSFix:      FixOffline,
		ProjectedAt: now,
	}
}

// Field returns the field for key, or Missing when the key was never set.
func (m DisplayMapping) Field(key string) Field {
	if f, ok := m.Fields[key]; ok {
		return f
	}
	return Missing
}

// Text is a shortcut for Field(key).Text.
func (m DisplayMapping) Text(key string) string { return m.Field(key).Text }

// Set stores f under key.
func (m *DisplayMapping) Set(key string, f Field) { m.Fields[key] = f }

// Clear marks every key as no data.
func (m *DisplayMapping) Clear(keys ...string) {
	for _, k := range keys {
		m.Fields[k] = Missing
	}
}
