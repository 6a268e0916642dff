package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/core/presentation"
	"github.com/kilianp07/leafdash/infra/mqtt"
)

type Config struct {
	Source       SourceConfig        `json:"source"`
	Presentation presentation.Config `json:"presentation"`
	MQTT         mqtt.Config         `json:"mqtt"`
	Metrics      metrics.Config      `json:"metrics"`
	Journal      JournalConfig       `json:"journal"`
	Cache        CacheConfig         `json:"cache"`
	API          APIConfig           `json:"api"`
	Sentry       SentryConfig        `json:"sentry"`
	Simulator    SimulatorConfig     `json:"simulator"`
}

// Default returns a configuration with every section defaulted, used when
// no file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

func (c *Config) SetDefaults() {
	c.Source.SetDefaults()
	c.Presentation.SetDefaults()
	c.MQTT.SetDefaults()
	c.Journal.SetDefaults()
	c.Cache.SetDefaults()
	c.Simulator.SetDefaults()
	c.Sentry.SetDefaults()
	c.Sentry.VehicleID = c.Source.VehicleID
}

func (c *Config) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Presentation.Validate(); err != nil {
		return fmt.Errorf("presentation: %w", err)
	}
	if c.Source.Push == PushMQTT || c.Simulator.PublishMQTT {
		if err := c.MQTT.Validate(); err != nil {
			return err
		}
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Simulator.Validate()
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
