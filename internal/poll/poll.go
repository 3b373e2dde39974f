// Package poll runs a function on a fixed interval in a background goroutine.
package poll

import (
	"context"
	"sync"
	"time"
)

// Poller calls fn once on Start and then every interval until Stop is
// called or the start context is done.
type Poller struct {
	interval time.Duration
	fn       func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped poller
func New(interval time.Duration, fn func(ctx context.Context)) *Poller {
	return &Poller{interval: interval, fn: fn}
}

// Start launches the loop. Starting a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.runningLocked() {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

// Stop cancels the loop and waits for it to exit. fn is never called
// after Stop returns. Stop must not be called from fn.
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

// Running reports whether the loop goroutine is alive
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runningLocked()
}

func (p *Poller) runningLocked() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.fn(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			p.fn(ctx)
		}
	}
}
