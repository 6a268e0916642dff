package presentation

import (
	"fmt"
	"time"
)

// DefaultMaxAgeSeconds is the freshness window applied when none is set.
const DefaultMaxAgeSeconds = 60

// Thresholds are the temperature bands of a component, in °C.
// NormalMax is the upper bound of the comfortable range and only takes part in
// validation; the category boundaries are WarmMax and HotMax.
type Thresholds struct {
	NormalMax float64 `json:"normal_max"`
	WarmMax   float64 `json:"warm_max"`
	HotMax    float64 `json:"hot_max"`
}

func (t Thresholds) isZero() bool { return t == Thresholds{} }

// Validate requires strictly increasing bands.
func (t Thresholds) Validate() error {
	if !(t.NormalMax < t.WarmMax && t.WarmMax < t.HotMax) {
		return fmt.Errorf("thresholds must satisfy normal_max < warm_max < hot_max, got %v/%v/%v",
			t.NormalMax, t.WarmMax, t.HotMax)
	}
	return nil
}

var (
	BatteryThresholds  = Thresholds{NormalMax: 20, WarmMax: 50, HotMax: 60}
	MotorThresholds    = Thresholds{NormalMax: 40, WarmMax: 80, HotMax: 100}
	InverterThresholds = Thresholds{NormalMax: 40, WarmMax: 80, HotMax: 100}
)

// Config tunes the projection. The zero value behaves like DefaultConfig.
type Config struct {
	MaxAgeSeconds int        `json:"max_age_seconds"`
	BatteryTemp   Thresholds `json:"battery_temp"`
	MotorTemp     Thresholds `json:"motor_temp"`
	InverterTemp  Thresholds `json:"inverter_temp"`
	// TimeZone is used for header clock fields. Empty means UTC.
	TimeZone string `json:"time_zone"`
}

// DefaultConfig returns the stock dashboard configuration.
func DefaultConfig() Config {
	c := Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills unset values.
func (c *Config) SetDefaults() {
	if c.MaxAgeSeconds <= 0 {
		c.MaxAgeSeconds = DefaultMaxAgeSeconds
	}
	if c.BatteryTemp.isZero() {
		c.BatteryTemp = BatteryThresholds
	}
	if c.MotorTemp.isZero() {
		c.MotorTemp = MotorThresholds
	}
	if c.InverterTemp.isZero() {
		c.InverterTemp = InverterThresholds
	}
}

// Validate checks threshold ordering and the time zone name.
func (c Config) Validate() error {
	for name, th := range map[string]Thresholds{
		"battery_temp":  c.BatteryTemp,
		"motor_temp":    c.MotorTemp,
		"inverter_temp": c.InverterTemp,
	} {
		if err := th.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			return fmt.Errorf("time_zone: %w", err)
		}
	}
	return nil
}

// MaxAge returns the freshness window.
func (c Config) MaxAge() time.Duration {
	if c.MaxAgeSeconds <= 0 {
		return DefaultMaxAgeSeconds * time.Second
	}
	return time.Duration(c.MaxAgeSeconds) * time.Second
}

func (c Config) location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
