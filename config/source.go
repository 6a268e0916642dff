package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kilianp07/leafdash/auth"
)

// Push transports.
const (
	PushWebSocket = "websocket"
	PushMQTT      = "mqtt"
	PushNone      = "none"
)

// SourceConfig describes the upstream telemetry API.
type SourceConfig struct {
	BaseURL string `json:"base_url"`
	// VehicleID labels display states, metrics and cache keys.
	VehicleID string `json:"vehicle_id"`
	// Push selects the realtime transport: "websocket", "mqtt" or "none".
	Push             string    `json:"push"`
	WebSocketPath    string    `json:"websocket_path"`
	PollIntervalMS   int       `json:"poll_interval_ms"`
	TimeoutSeconds   int       `json:"timeout_seconds"`
	ReconnectSeconds int       `json:"reconnect_seconds"`
	Auth             auth.Conf `json:"auth"`
}

// SetDefaults applies the dashboard defaults.
func (c *SourceConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080"
	}
	if c.VehicleID == "" {
		c.VehicleID = "leaf"
	}
	if c.Push == "" {
		c.Push = PushWebSocket
	}
	if c.WebSocketPath == "" {
		c.WebSocketPath = "/ws"
	}
}

// Validate checks the URL and the push transport.
func (c SourceConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("source: invalid base_url %q", c.BaseURL)
	}
	switch c.Push {
	case PushWebSocket, PushMQTT, PushNone:
	default:
		return fmt.Errorf("source: unknown push transport %q", c.Push)
	}
	return c.Auth.Validate()
}

func (c SourceConfig) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c SourceConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c SourceConfig) ReconnectDelay() time.Duration {
	if c.ReconnectSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.ReconnectSeconds) * time.Second
}
