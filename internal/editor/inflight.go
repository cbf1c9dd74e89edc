package editor

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// inflight: at most one persistence call per element
// ─────────────────────────────────────────────────────────────

// inflight ensures only one network call per element id runs at a time and lets
// the editor wait for every outstanding call on shutdown.
type inflight struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock marks id as busy. It returns false if a call for id is already running.
func (g *inflight) TryLock(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[id]; ok {
		return false
	}
	g.running[id] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases id. Must follow a successful TryLock.
func (g *inflight) Unlock(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, id)
	g.wg.Done()
}

// Track counts a call that is not keyed by element, such as a create.
func (g *inflight) Track() func() {
	g.wg.Add(1)
	return g.wg.Done
}

// WaitAll blocks until all running calls complete or ctx is cancelled.
func (g *inflight) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
