package metrics

import (
	"fmt"
	"slices"

	"github.com/kilianp07/leafdash/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// ListenAddr exposes /metrics when a prometheus sink is configured.
	ListenAddr string `json:"listen_addr"`
}

// HasSink reports whether a sink of the given type is configured.
func (c Config) HasSink(typ string) bool {
	return slices.ContainsFunc(c.Sinks, func(s factory.ModuleConfig) bool { return s.Type == typ })
}

// Validate rejects untyped and repeated sinks. A prometheus sink registers
// its collectors once, so it cannot appear twice.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Sinks))
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
		if seen[s.Type] && s.Type != "nop" {
			return fmt.Errorf("metrics: sink %s configured twice", s.Type)
		}
		seen[s.Type] = true
	}
	return nil
}
