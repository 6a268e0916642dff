// Package cache builds the display state store selected by configuration.
package cache

import (
	"context"

	"github.com/kilianp07/leafdash/config"
	"github.com/kilianp07/leafdash/core/displaystate"
)

// New returns a MemoryStore or a RedisStore. The returned close function is
// never nil.
func New(ctx context.Context, cfg config.CacheConfig) (displaystate.Store, func() error, error) {
	if cfg.Backend != "redis" {
		return displaystate.NewMemoryStore(), func() error { return nil }, nil
	}
	s, err := NewRedisStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}
