// Package progress provides an optimistic progress estimate for a research
// request in flight. The estimate is cosmetic: it advances on a timer and
// knows nothing about what the backend is doing.
package progress

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"research-dash/internal/view"
)

// Defaults
const (
	DefaultInterval = 800 * time.Millisecond
	DefaultLimit    = 30 * time.Second
	DefaultCeiling  = 90.0
	DefaultMaxStep  = 15.0
)

// SimulatedTools is the fixed order in which tool tags appear as the
// estimate advances.
var SimulatedTools = []string{
	"wikipedia_search",
	"tavily_search",
	"arxiv_search",
	"fetch_url_content",
	"pubmed_search",
}

// Snapshot is the display state of the estimate at one moment
type Snapshot struct {
	Percent float64
	Status  string
	Tools   []string
	Step    int
}

// SnapshotAt computes the status line, simulated tools and step for a
// percentage.
func SnapshotAt(percent float64) Snapshot {
	n := int(percent / 20)
	if n > len(SimulatedTools) {
		n = len(SimulatedTools)
	}
	if n < 0 {
		n = 0
	}
	return Snapshot{
		Percent: percent,
		Status:  StatusFor(percent),
		Tools:   append([]string(nil), SimulatedTools[:n]...),
		Step:    view.StepFor(percent),
	}
}

// StatusFor returns the cosmetic status line for a percentage
func StatusFor(percent float64) string {
	switch {
	case percent < 20:
		return "Analyzing your query..."
	case percent < 40:
		return "Selecting research tools..."
	case percent < 60:
		return "Gathering information..."
	case percent < 80:
		return "Processing results..."
	default:
		return "Synthesizing answer..."
	}
}

// Options tunes the estimator. Zero values use the defaults.
type Options struct {
	Interval time.Duration
	Limit    time.Duration
	Ceiling  float64
	MaxStep  float64
	// Float64 returns a value in [0, 1); defaults to math/rand.
	Float64 func() float64
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Ceiling <= 0 || o.Ceiling > 100 {
		o.Ceiling = DefaultCeiling
	}
	if o.MaxStep <= 0 {
		o.MaxStep = DefaultMaxStep
	}
	if o.Float64 == nil {
		o.Float64 = rand.Float64
	}
	return o
}

// Estimator advances a percentage by a random step every interval until
// it reaches the ceiling, the time limit passes or it is stopped.
type Estimator struct {
	opts     Options
	onUpdate func(Snapshot)

	mu      sync.Mutex
	percent float64
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates an idle estimator. onUpdate is called from the estimator
// goroutine for every tick and once from Complete.
func New(opts Options, onUpdate func(Snapshot)) *Estimator {
	if onUpdate == nil {
		onUpdate = func(Snapshot) {}
	}
	return &Estimator{opts: opts.withDefaults(), onUpdate: onUpdate}
}

// Start resets the estimate to zero and begins ticking. A running
// estimate is stopped first.
func (e *Estimator) Start(ctx context.Context) {
	e.Stop()

	ctx, cancel := context.WithTimeout(ctx, e.opts.Limit)

	e.mu.Lock()
	e.percent = 0
	e.cancel = cancel
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	e.onUpdate(SnapshotAt(0))
	go e.run(ctx, done)
}

// Stop halts the estimate and waits for the ticking goroutine to exit.
// The percentage is left where it was.
func (e *Estimator) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Complete stops the estimate, jumps to 100% and reports the final snapshot.
func (e *Estimator) Complete() Snapshot {
	e.Stop()

	e.mu.Lock()
	e.percent = 100
	e.mu.Unlock()

	snap := SnapshotAt(100)
	e.onUpdate(snap)
	return snap
}

// Percent returns the current estimate
func (e *Estimator) Percent() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.percent
}

func (e *Estimator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			p, atCeiling := e.advance()
			e.onUpdate(SnapshotAt(p))
			if atCeiling {
				return
			}
		}
	}
}

func (e *Estimator) advance() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.percent += e.opts.Float64() * e.opts.MaxStep
	if e.percent >= e.opts.Ceiling {
		e.percent = e.opts.Ceiling
		return e.percent, true
	}
	return e.percent, false
}
