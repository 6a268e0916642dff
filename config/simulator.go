package config

import "fmt"

// SimulatorConfig drives the development fixture of the telemetry API.
type SimulatorConfig struct {
	ListenAddr string `json:"listen_addr"`
	// TickMS is the interval between simulated snapshots.
	TickMS int `json:"tick_ms"`
	// PublishMQTT also publishes every snapshot on mqtt.topic.
	PublishMQTT bool    `json:"publish_mqtt"`
	Hostname    string  `json:"hostname"`
	InitialSoC  float64 `json:"initial_soc"`
	Seed        int64   `json:"seed"`
}

func (c *SimulatorConfig) SetDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.TickMS <= 0 {
		c.TickMS = 1000
	}
	if c.Hostname == "" {
		c.Hostname = "leaf-sim"
	}
	if c.InitialSoC <= 0 {
		c.InitialSoC = 80
	}
}

func (c SimulatorConfig) Validate() error {
	if c.InitialSoC > 100 {
		return fmt.Errorf("simulator: initial_soc %.1f above 100", c.InitialSoC)
	}
	return nil
}
