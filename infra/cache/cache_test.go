package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/leafdash/config"
	"github.com/kilianp07/leafdash/core/displaystate"
)

func TestNewMemoryDefault(t *testing.T) {
	store, closeFn, err := New(context.Background(), config.CacheConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &displaystate.MemoryStore{}, store)
	assert.NoError(t, closeFn())
}

func TestNewRedisUnreachable(t *testing.T) {
	_, _, err := New(context.Background(), config.CacheConfig{Backend: "redis", Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
