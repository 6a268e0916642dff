package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/kilianp07/leafdash/core/displaystate"
	"github.com/kilianp07/leafdash/core/journal"
	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/core/model"
	coremon "github.com/kilianp07/leafdash/core/monitoring"
	"github.com/kilianp07/leafdash/core/ordering"
	"github.com/kilianp07/leafdash/core/presentation"
	"github.com/kilianp07/leafdash/infra/logger"
	"github.com/kilianp07/leafdash/internal/eventbus"
)

// ErrStopped is returned by Submit once the controller has exited.
var ErrStopped = errors.New("controller stopped")

// ControllerOptions wires a Controller. Only Pipeline is required.
type ControllerOptions struct {
	VehicleID string
	Pipeline  *presentation.Pipeline
	Store     displaystate.Store
	Bus       *eventbus.TypedBus[displaystate.State]
	Journal   journal.Store
	Sink      coremetrics.MetricsSink
	Monitor   coremon.Monitor
	// Refresh is the re-projection period of the last snapshot. Zero means
	// one second.
	Refresh time.Duration
	Buffer  int
	Now     func() time.Time
}

// Controller is the single consumer of snapshot envelopes. It orders them,
// journals what it admits, projects the display and publishes it.
type Controller struct {
	vehicleID string
	gate      *ordering.Gate
	pipeline  *presentation.Pipeline
	store     displaystate.Store
	bus       *eventbus.TypedBus[displaystate.State]
	journal   journal.Store
	discards  coremetrics.DiscardRecorder
	monitor   coremon.Monitor
	refresh   time.Duration
	now       func() time.Time
	log       logger.Logger

	in   chan model.Envelope
	done chan struct{}
	once sync.Once

	mu   sync.Mutex
	last *model.Envelope
}

func NewController(opts ControllerOptions) *Controller {
	if opts.Pipeline == nil {
		opts.Pipeline = presentation.NewPipeline(presentation.DefaultConfig())
	}
	if opts.Store == nil {
		opts.Store = displaystate.NewMemoryStore()
	}
	if opts.Bus == nil {
		opts.Bus = eventbus.NewTyped[displaystate.State]()
	}
	if opts.Journal == nil {
		opts.Journal = journal.NopStore{}
	}
	if opts.Refresh <= 0 {
		opts.Refresh = time.Second
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.VehicleID == "" {
		opts.VehicleID = "leaf"
	}
	c := &Controller{
		vehicleID: opts.VehicleID,
		gate:      ordering.NewGateWithSkew(opts.Pipeline.Config().MaxAge()),
		pipeline:  opts.Pipeline,
		store:     opts.Store,
		bus:       opts.Bus,
		journal:   opts.Journal,
		monitor:   coremon.OrNop(opts.Monitor),
		refresh:   opts.Refresh,
		now:       opts.Now,
		log:       logger.New("controller"),
		in:        make(chan model.Envelope, opts.Buffer),
		done:      make(chan struct{}),
	}
	if r, ok := opts.Sink.(coremetrics.DiscardRecorder); ok {
		c.discards = r
	}
	return c
}

// Bus returns the bus display states are published on.
func (c *Controller) Bus() *eventbus.TypedBus[displaystate.State] { return c.bus }

// Store returns the display state store.
func (c *Controller) Store() displaystate.Store { return c.store }

// Submit queues env for Run in arrival order. It blocks while the queue is
// full and fails once Run has returned.
func (c *Controller) Submit(env model.Envelope) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}
	select {
	case c.in <- env:
		return nil
	case <-c.done:
		return ErrStopped
	}
}

// Run consumes submitted envelopes and re-projects the last admitted
// snapshot on every refresh tick until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	defer c.once.Do(func() { close(c.done) })
	ticker := time.NewTicker(c.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-c.in:
			c.Process(ctx, env)
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

// Process handles one envelope synchronously and returns the published
// state. It returns false when the gate rejected the envelope.
func (c *Controller) Process(ctx context.Context, env model.Envelope) (displaystate.State, bool) {
	admitted, reason, ok := c.gate.Admit(env)
	if !ok {
		c.log.Debugw("snapshot discarded", map[string]any{
			"origin": env.Origin,
			"reason": reason,
			"stamp":  env.Stamp(),
		})
		if c.discards != nil {
			_ = c.discards.RecordDiscard(coremetrics.DiscardEvent{Origin: env.Origin, Reason: string(reason), Time: c.now()})
		}
		return displaystate.State{}, false
	}
	if reason == ordering.ReasonReanchored {
		c.log.Warnf("upstream clock stepped back, re-anchored at %s (seq %d)",
			admitted.Stamp().Format(time.RFC3339), admitted.Seq)
	}
	now := c.now()
	if admitted.Origin == model.OriginReplay {
		now = admitted.Received
	} else {
		c.record(ctx, admitted)
	}
	c.mu.Lock()
	c.last = &admitted
	c.mu.Unlock()
	return c.publish(ctx, admitted, now), true
}

// Refresh re-projects the last admitted snapshot so groups age into stale
// without new data.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()
	if last == nil || last.Origin == model.OriginReplay {
		return
	}
	c.publish(ctx, *last, c.now())
}

func (c *Controller) record(ctx context.Context, env model.Envelope) {
	rec, err := journal.FromEnvelope(env)
	if err == nil {
		err = c.journal.Append(ctx, rec)
	}
	if err != nil {
		c.log.Warnf("journal append seq %d: %v", env.Seq, err)
		coremon.Capture(c.monitor, "journal", err)
	}
}

func (c *Controller) publish(ctx context.Context, env model.Envelope, now time.Time) displaystate.State {
	st := displaystate.State{
		VehicleID: c.vehicleID,
		Seq:       env.Seq,
		Origin:    env.Origin,
		Display:   c.pipeline.Project(env.Snapshot, now),
	}
	if raw, err := json.Marshal(env.Snapshot); err == nil {
		st.Snapshot = raw
	}
	st.UpdatedAt = c.now()
	if env.Origin == model.OriginReplay {
		st.UpdatedAt = now
	}
	if err := c.store.Set(ctx, st); err != nil {
		c.log.Warnf("store display: %v", err)
		coremon.Capture(c.monitor, "display-store", err)
	}
	c.bus.Publish(st)
	return st
}
