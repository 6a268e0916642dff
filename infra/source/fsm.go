package source

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/looplab/fsm"
)

// Push connection states.
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
	StateSubscribed   = "subscribed"
)

// Push connection events.
const (
	EventDial      = "dial"
	EventOpen      = "open"
	EventSubscribe = "subscribe"
	EventDrop      = "drop"
)

// ConnFSM tracks the lifecycle of a push connection. Transition callbacks
// only see the event, so onChange must not call back into the machine.
type ConnFSM struct {
	machine   *fsm.FSM
	connected atomic.Bool
}

// NewConnFSM returns a machine in StateDisconnected. onChange, if set, runs
// after every transition with the source and destination states.
func NewConnFSM(onChange func(from, to string)) *ConnFSM {
	c := &ConnFSM{}
	events := fsm.Events{
		{Name: EventDial, Src: []string{StateDisconnected}, Dst: StateConnecting},
		{Name: EventOpen, Src: []string{StateConnecting}, Dst: StateConnected},
		{Name: EventSubscribe, Src: []string{StateConnected}, Dst: StateSubscribed},
		{Name: EventDrop, Src: []string{StateConnecting, StateConnected, StateSubscribed}, Dst: StateDisconnected},
	}
	callbacks := fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			c.connected.Store(e.Dst == StateConnected || e.Dst == StateSubscribed)
			if onChange != nil {
				onChange(e.Src, e.Dst)
			}
		},
	}
	c.machine = fsm.NewFSM(StateDisconnected, events, callbacks)
	return c
}

// Fire applies event. Firing an event that does not apply to the current
// state, or that leaves it unchanged, is not an error.
func (c *ConnFSM) Fire(ctx context.Context, event string) error {
	err := c.machine.Event(ctx, event)
	var invalid fsm.InvalidEventError
	var noTransition fsm.NoTransitionError
	if err == nil || errors.As(err, &invalid) || errors.As(err, &noTransition) {
		return nil
	}
	return err
}

// Current returns the current state.
func (c *ConnFSM) Current() string { return c.machine.Current() }

// Connected reports whether the socket is open, subscribed or not.
func (c *ConnFSM) Connected() bool { return c.connected.Load() }
