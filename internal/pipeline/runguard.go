package pipeline

import (
	"context"
	"sync"
)

// RunGuard hands out monotonically increasing run ids. Only the most recent
// id is current; starting a run or calling Invalidate supersedes every
// earlier one and cancels its context. Callers compare ids before applying
// results so stale completions are dropped silently.
type RunGuard struct {
	mu      sync.Mutex
	current uint64
	cancel  context.CancelFunc
}

// Begin starts a new run derived from parent.
func (g *RunGuard) Begin(parent context.Context) (uint64, context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.current++
	ctx, cancel := context.WithCancel(parent)
	g.cancel = cancel
	return g.current, ctx
}

// Current reports whether id is still the latest run.
func (g *RunGuard) Current(id uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return id == g.current
}

// Finish releases the context of run id if it is still current.
func (g *RunGuard) Finish(id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id == g.current && g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// Invalidate supersedes the in-flight run, if any.
func (g *RunGuard) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current++
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}
