package config

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
	// VehicleID is copied from source.vehicle_id and tags every event.
	VehicleID string `json:"-"`
}

// SetDefaults names the environment.
func (c *SentryConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.Release == "" {
		c.Release = "leafdash@dev"
	}
}
