package config

import "github.com/kilianp07/leafdash/auth"

// APIConfig configures the display API served to kiosk clients.
type APIConfig struct {
	// ListenAddr disables the API when empty.
	ListenAddr string       `json:"listen_addr"`
	JWT        auth.JWTConf `json:"jwt"`
}
