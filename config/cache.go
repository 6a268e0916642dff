package config

import (
	"fmt"
	"time"
)

// CacheConfig selects where the latest display state is kept.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend    string `json:"backend"`
	Addr       string `json:"addr"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	KeyPrefix  string `json:"key_prefix"`
	TTLSeconds int    `json:"ttl_seconds"`
}

func (c *CacheConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "leafdash:display:"
	}
}

func (c CacheConfig) Validate() error {
	switch c.Backend {
	case "memory":
		return nil
	case "redis":
		if c.Addr == "" {
			return fmt.Errorf("cache: addr is required for redis")
		}
		return nil
	default:
		return fmt.Errorf("cache: unknown backend %s", c.Backend)
	}
}

// TTL is zero when entries never expire.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TTLSeconds) * time.Second
}
