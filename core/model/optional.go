package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

var null = []byte("null")

// OptFloat is a numeric reading that may be absent.
type OptFloat struct {
	Value float64
	Valid bool
}

// Float returns a present OptFloat.
func Float(v float64) OptFloat { return OptFloat{Value: v, Valid: true} }

// Get returns the value and whether it is present.
func (f OptFloat) Get() (float64, bool) { return f.Value, f.Valid }

// Or returns the first present value among f and alts.
func (f OptFloat) Or(alts ...OptFloat) OptFloat {
	if f.Valid {
		return f
	}
	for _, a := range alts {
		if a.Valid {
			return a
		}
	}
	return OptFloat{}
}

// UnmarshalJSON accepts numbers and numeric strings. Anything else, NaN and
// infinities included, leaves the value absent. It never returns an error.
func (f *OptFloat) UnmarshalJSON(data []byte) error {
	*f = OptFloat{}
	v, ok := parseNumber(data)
	if ok {
		*f = OptFloat{Value: v, Valid: true}
	}
	return nil
}

func (f OptFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return null, nil
	}
	return json.Marshal(f.Value)
}

// OptBool is a flag that may be absent. It decodes true/false, 0/1 and their
// string forms.
type OptBool struct {
	Value bool
	Valid bool
}

// Bool returns a present OptBool.
func Bool(v bool) OptBool { return OptBool{Value: v, Valid: true} }

// True reports whether the flag is present and set.
func (b OptBool) True() bool { return b.Valid && b.Value }

func (b *OptBool) UnmarshalJSON(data []byte) error {
	*b = OptBool{}
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*b = Bool(true)
		return nil
	case "false":
		*b = Bool(false)
		return nil
	}
	if s, ok := unquote(data); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "on":
			*b = Bool(true)
			return nil
		case "false", "no", "off":
			*b = Bool(false)
			return nil
		}
	}
	if v, ok := parseNumber(data); ok {
		switch v {
		case 1:
			*b = Bool(true)
		case 0:
			*b = Bool(false)
		}
	}
	return nil
}

func (b OptBool) MarshalJSON() ([]byte, error) {
	if !b.Valid {
		return null, nil
	}
	return json.Marshal(b.Value)
}

// Timestamp keeps the raw textual or numeric time reported by the vehicle.
// Parsing is deferred to Time so an unparseable value is still distinguishable
// from a missing one.
type Timestamp struct {
	Raw     string
	Present bool
}

// At builds a present timestamp in RFC 3339 with nanoseconds.
func At(t time.Time) Timestamp {
	return Timestamp{Raw: t.UTC().Format(time.RFC3339Nano), Present: true}
}

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Time parses the timestamp. ISO 8601 strings without a zone are read as UTC.
// Numbers are epoch seconds, or milliseconds when larger than 1e11.
func (t Timestamp) Time() (time.Time, bool) {
	if !t.Present {
		return time.Time{}, false
	}
	raw := strings.TrimSpace(t.Raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return time.Time{}, false
	}
	if v > 1e11 {
		return time.UnixMilli(int64(v)).UTC(), true
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		return nil
	}
	if s, ok := unquote(data); ok {
		*t = Timestamp{Raw: s, Present: true}
		return nil
	}
	if _, ok := parseNumber(data); ok {
		*t = Timestamp{Raw: string(data), Present: true}
		return nil
	}
	// present but of an unusable type: keep it so freshness reports stale
	*t = Timestamp{Present: true}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Present {
		return null, nil
	}
	return json.Marshal(t.Raw)
}

func unquote(data []byte) (string, bool) {
	if len(data) < 2 || data[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	return s, true
}

func parseNumber(data []byte) (float64, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		return 0, false
	}
	raw := string(data)
	if s, ok := unquote(data); ok {
		raw = strings.TrimSpace(s)
	} else if data[0] == '{' || data[0] == '[' || data[0] == 't' || data[0] == 'f' {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
