package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) record(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}

func TestSnapshotAt(t *testing.T) {
	tests := []struct {
		percent float64
		status  string
		tools   int
		step    int
	}{
		{0, "Analyzing your query...", 0, 1},
		{19.9, "Analyzing your query...", 0, 1},
		{25, "Selecting research tools...", 1, 1},
		{50, "Gathering information...", 2, 2},
		{65, "Processing results...", 3, 2},
		{90, "Synthesizing answer...", 4, 3},
		{100, "Synthesizing answer...", 5, 3},
	}
	for _, tt := range tests {
		s := SnapshotAt(tt.percent)
		assert.Equal(t, tt.status, s.Status, "percent %v", tt.percent)
		assert.Len(t, s.Tools, tt.tools, "percent %v", tt.percent)
		assert.Equal(t, tt.step, s.Step, "percent %v", tt.percent)
	}
	assert.Equal(t, []string{"wikipedia_search", "tavily_search"}, SnapshotAt(45).Tools)
}

func TestEstimatorStopsAtCeiling(t *testing.T) {
	rec := &recorder{}
	e := New(Options{Interval: time.Millisecond, Float64: func() float64 { return 1 }}, rec.record)

	e.Start(context.Background())
	assert.Eventually(t, func() bool { return e.Percent() == DefaultCeiling }, time.Second, time.Millisecond)

	// The loop exits on its own once the ceiling is reached.
	time.Sleep(10 * time.Millisecond)
	n := len(rec.all())
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, n, len(rec.all()))

	snaps := rec.all()
	require.NotEmpty(t, snaps)
	assert.Equal(t, 0.0, snaps[0].Percent)
	for i := 1; i < len(snaps); i++ {
		assert.GreaterOrEqual(t, snaps[i].Percent, snaps[i-1].Percent)
		assert.LessOrEqual(t, snaps[i].Percent, DefaultCeiling)
	}
	e.Stop()
}

func TestEstimatorHardStopsAfterLimit(t *testing.T) {
	e := New(Options{
		Interval: time.Millisecond,
		Limit:    20 * time.Millisecond,
		Float64:  func() float64 { return 0.0001 },
	}, nil)

	e.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	p := e.Percent()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, p, e.Percent())
	assert.Less(t, p, DefaultCeiling)
	e.Stop()
}

func TestCompleteJumpsToHundred(t *testing.T) {
	rec := &recorder{}
	e := New(Options{Interval: time.Hour}, rec.record)

	e.Start(context.Background())
	snap := e.Complete()

	assert.Equal(t, 100.0, snap.Percent)
	assert.Equal(t, 100.0, e.Percent())
	snaps := rec.all()
	assert.Equal(t, 100.0, snaps[len(snaps)-1].Percent)
}

func TestRestartResets(t *testing.T) {
	rec := &recorder{}
	e := New(Options{Interval: time.Millisecond, Float64: func() float64 { return 1 }}, rec.record)
	e.Start(context.Background())
	assert.Eventually(t, func() bool { return e.Percent() == DefaultCeiling }, time.Second, time.Millisecond)
	e.Stop()

	before := len(rec.all())
	e.Start(context.Background())
	e.Stop()

	snaps := rec.all()
	require.Greater(t, len(snaps), before)
	assert.Equal(t, 0.0, snaps[before].Percent)
}
