package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnFSMLifecycle(t *testing.T) {
	var seen []string
	f := NewConnFSM(func(from, to string) { seen = append(seen, from+">"+to) })
	ctx := context.Background()

	assert.Equal(t, StateDisconnected, f.Current())
	assert.False(t, f.Connected())

	assert.NoError(t, f.Fire(ctx, EventDial))
	assert.False(t, f.Connected())
	assert.NoError(t, f.Fire(ctx, EventOpen))
	assert.True(t, f.Connected())
	assert.NoError(t, f.Fire(ctx, EventSubscribe))
	assert.Equal(t, StateSubscribed, f.Current())
	assert.True(t, f.Connected())

	// repeated subscribe is ignored
	assert.NoError(t, f.Fire(ctx, EventSubscribe))
	assert.NoError(t, f.Fire(ctx, EventDrop))
	assert.False(t, f.Connected())
	// drop while disconnected is ignored
	assert.NoError(t, f.Fire(ctx, EventDrop))

	assert.Equal(t, []string{
		"disconnected>connecting",
		"connecting>connected",
		"connected>subscribed",
		"subscribed>disconnected",
	}, seen)
}

func TestConnFSMSkipsInvalid(t *testing.T) {
	f := NewConnFSM(nil)
	assert.NoError(t, f.Fire(context.Background(), EventSubscribe))
	assert.Equal(t, StateDisconnected, f.Current())
}
