// Package testkit synthesizes cfntheory apps deterministically and asserts on
// the resulting templates.
package testkit

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/cfntheory"
)

// Env pins the run id and creation time recorded in an assembly.
type Env struct {
	Clock *ManualClock
	IDs   *ManualIDGenerator
}

// New starts the clock at the Unix epoch.
func New() *Env {
	return NewWithTime(time.Unix(0, 0).UTC())
}

func NewWithTime(now time.Time) *Env {
	return &Env{Clock: NewManualClock(now), IDs: NewManualIDGenerator()}
}

// App builds an app on the env's clock and ids. opts are applied after them
// and may replace either.
func (e *Env) App(opts ...cfntheory.Option) *cfntheory.App {
	return cfntheory.NewApp(append([]cfntheory.Option{
		cfntheory.WithClock(e.Clock),
		cfntheory.WithIDGenerator(e.IDs),
	}, opts...)...)
}

// Stack adds a stack named id to a fresh app.
func (e *Env) Stack(t testing.TB, id string, opts ...cfntheory.Option) *cfntheory.Stack {
	t.Helper()
	stack, err := cfntheory.NewStack(e.App(opts...), id, nil)
	require.NoError(t, err, "stack %s", id)
	return stack
}

func (e *Env) Synth(t testing.TB, app *cfntheory.App) *cfntheory.Assembly {
	t.Helper()
	asm, err := app.Synth()
	require.NoError(t, err, "synthesize")
	return asm
}

type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ cfntheory.Clock = (*ManualClock)(nil)

func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// ManualIDGenerator hands out queued run ids first, then test-run-1,
// test-run-2 and so on.
type ManualIDGenerator struct {
	mu      sync.Mutex
	pending []string
	count   int
}

var _ cfntheory.IDGenerator = (*ManualIDGenerator)(nil)

func NewManualIDGenerator() *ManualIDGenerator {
	return &ManualIDGenerator{}
}

func (g *ManualIDGenerator) Queue(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = append(g.pending, ids...)
}

// Reset drops queued ids and restarts the sequence.
func (g *ManualIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending, g.count = nil, 0
}

func (g *ManualIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n := len(g.pending); n > 0 {
		id := g.pending[0]
		g.pending = g.pending[1:]
		return id
	}
	g.count++
	return "test-run-" + strconv.Itoa(g.count)
}
