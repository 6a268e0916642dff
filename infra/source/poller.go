package source

import (
	"context"
	"sync"
	"time"

	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/infra/logger"
)

// StatusFetcher pulls one snapshot.
type StatusFetcher interface {
	Status(ctx context.Context) (model.Envelope, error)
}

// Poller fetches the status endpoint on a fixed interval while the push
// channel is down, plus once on start.
type Poller struct {
	fetch     StatusFetcher
	interval  time.Duration
	connected func() bool
	emit      Emit
	log       logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller returns a stopped poller. connected may be nil, in which case
// every tick fetches.
func NewPoller(fetch StatusFetcher, interval time.Duration, connected func() bool, emit Emit) *Poller {
	if connected == nil {
		connected = func() bool { return false }
	}
	return &Poller{
		fetch:     fetch,
		interval:  interval,
		connected: connected,
		emit:      emit,
		log:       logger.New("source-poller"),
	}
}

// Start launches the loop. Calling Start on a running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

// Stop ends the loop and waits for it to exit. Calling Stop on a stopped
// poller does nothing.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.connected() {
				continue
			}
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	env, err := p.fetch.Status(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warnf("status poll: %v", err)
		}
		return
	}
	p.emit(env)
}
