package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Indicator is the liveness reported for a subsystem in status_indicators.
type Indicator string

const (
	IndicatorOnline  Indicator = "online"
	IndicatorOffline Indicator = "offline"
	IndicatorUnknown Indicator = "unknown"
)

// ParseIndicator maps any unrecognised value to IndicatorUnknown.
func ParseIndicator(s string) Indicator {
	switch Indicator(strings.ToLower(strings.TrimSpace(s))) {
	case IndicatorOnline:
		return IndicatorOnline
	case IndicatorOffline:
		return IndicatorOffline
	default:
		return IndicatorUnknown
	}
}

// Snapshot is one observation of all vehicle subsystems. Any group may be nil,
// which means the group was not reported in this cycle.
type Snapshot struct {
	Timestamp        Timestamp           `json:"timestamp"`
	Hostname         string              `json:"hostname,omitempty"`
	Battery          *Battery            `json:"battery,omitempty"`
	Motor            *Motor              `json:"motor,omitempty"`
	Inverter         *Inverter           `json:"inverter,omitempty"`
	Charger          *Charger            `json:"charger,omitempty"`
	GPS              *GPS                `json:"gps,omitempty"`
	Body             *Body               `json:"body,omitempty"`
	StatusIndicators map[Group]Indicator `json:"status_indicators,omitempty"`
}

// Group returns the group with the given name as a Stamped value.
func (s *Snapshot) Group(g Group) Stamped {
	if s == nil {
		return (*Battery)(nil)
	}
	switch g {
	case GroupBattery:
		return s.Battery
	case GroupMotor:
		return s.Motor
	case GroupInverter:
		return s.Inverter
	case GroupCharger:
		return s.Charger
	case GroupGPS:
		return s.GPS
	case GroupBody:
		return s.Body
	}
	return (*Battery)(nil)
}

// Indicator returns the status indicator for g, or IndicatorUnknown when the
// snapshot carries none.
func (s *Snapshot) Indicator(g Group) Indicator {
	if s == nil || s.StatusIndicators == nil {
		return IndicatorUnknown
	}
	if ind, ok := s.StatusIndicators[g]; ok {
		return ind
	}
	return IndicatorUnknown
}

// Time parses the snapshot level timestamp.
func (s *Snapshot) Time() (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	return s.Timestamp.Time()
}

// legacyGroups maps the per-measurement keys of the older dashboard layout to
// canonical groups. Later entries overlay earlier ones.
var legacyGroups = map[Group][]string{
	GroupBattery: {"battery_soc", "battery_temp"},
	GroupMotor:   {"motor_rpm"},
	GroupGPS:     {"gps_position", "gps_velocity"},
	GroupBody:    {"body_voltage"},
}

// UnmarshalJSON decodes the snapshot group by group. It only fails when the
// payload is not a JSON object.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Snapshot{}
	if v, ok := raw["timestamp"]; ok {
		_ = s.Timestamp.UnmarshalJSON(v)
	}
	if v, ok := raw["hostname"]; ok {
		_ = json.Unmarshal(v, &s.Hostname)
	}
	s.Battery = decodeGroup[Battery](raw, GroupBattery)
	s.Motor = decodeGroup[Motor](raw, GroupMotor)
	s.Inverter = decodeGroup[Inverter](raw, GroupInverter)
	s.Charger = decodeGroup[Charger](raw, GroupCharger)
	s.GPS = decodeGroup[GPS](raw, GroupGPS)
	s.Body = decodeGroup[Body](raw, GroupBody)
	if v, ok := raw["status_indicators"]; ok {
		var ind map[string]json.RawMessage
		if json.Unmarshal(v, &ind) == nil {
			s.StatusIndicators = make(map[Group]Indicator, len(ind))
			for k, rv := range ind {
				var str string
				_ = json.Unmarshal(rv, &str)
				s.StatusIndicators[Group(k)] = ParseIndicator(str)
			}
		}
	}
	return nil
}

// decodeGroup decodes the canonical key for g, falling back to the legacy
// keys. A value that is not an object yields nil.
func decodeGroup[T any, PT interface {
	*T
	json.Unmarshaler
}](raw map[string]json.RawMessage, g Group) *T {
	keys := []string{string(g)}
	if _, ok := raw[string(g)]; !ok {
		keys = legacyGroups[g]
	}
	var out *T
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || !isObject(v) {
			continue
		}
		if out == nil {
			out = new(T)
		}
		_ = PT(out).UnmarshalJSON(v)
	}
	return out
}

// ParseSnapshot decodes a snapshot payload.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
