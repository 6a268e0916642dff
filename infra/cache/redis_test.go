//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/leafdash/config"
	"github.com/kilianp07/leafdash/core/displaystate"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(ctx) })
	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return host + ":" + port.Port()
}

func TestRedisStore(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()
	cfg := config.CacheConfig{Backend: "redis", Addr: addr}
	cfg.SetDefaults()
	store, closeFn, err := New(ctx, cfg)
	require.NoError(t, err)
	defer closeFn()

	_, ok, err := store.Get(ctx, "leaf")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, displaystate.State{VehicleID: "leaf", Seq: 2}))
	require.NoError(t, store.Set(ctx, displaystate.State{VehicleID: "leaf", Seq: 1}))
	st, ok, err := store.Get(ctx, "leaf")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), st.Seq)

	require.NoError(t, store.Set(ctx, displaystate.State{VehicleID: "leaf", Seq: 0}))
	st, _, err = store.Get(ctx, "leaf")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), st.Seq)

	require.NoError(t, store.Set(ctx, displaystate.State{VehicleID: "e-nv200", Seq: 1}))
	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "e-nv200", all[0].VehicleID)
}

func TestRedisStoreNewEpochReplacesPreviousRun(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()
	cfg := config.CacheConfig{Backend: "redis", Addr: addr, KeyPrefix: "leafdash:restart:"}

	previous, err := NewRedisStore(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, previous.Set(ctx, displaystate.State{VehicleID: "leaf", Seq: 500, Origin: "push"}))
	require.NoError(t, previous.Close())

	current, err := NewRedisStore(ctx, cfg)
	require.NoError(t, err)
	defer current.Close()
	require.NoError(t, current.Set(ctx, displaystate.State{VehicleID: "leaf", Seq: 1, Origin: "poll"}))
	st, ok, err := current.Get(ctx, "leaf")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), st.Seq)
	assert.Equal(t, "poll", string(st.Origin))

	require.NoError(t, current.Set(ctx, displaystate.State{VehicleID: "leaf", Seq: 3}))
	require.NoError(t, current.Set(ctx, displaystate.State{VehicleID: "leaf", Seq: 2}))
	st, _, err = current.Get(ctx, "leaf")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), st.Seq)
}
