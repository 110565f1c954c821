package detect

import (
	"sync"
	"time"

	"riskwatch/internal/event"
	"riskwatch/internal/page"
)

// CooldownWindow is how long a repeat signal of the same kind from the same
// element is suppressed.
const CooldownWindow = 3000 * time.Millisecond

// sweepInterval bounds how often expired entries are reclaimed. Entries are
// keyed by the page's opaque handles, never element references, so the gate
// can never keep an element alive; the sweep only caps table growth.
const sweepInterval = time.Minute

// Gate deduplicates signals per (element, kind). A blocked check has no side
// effects; an allowed check stamps the pair with the current time.
type Gate struct {
	mu        sync.Mutex
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
	entries   map[page.ElementID]map[event.Type]time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

// NewGate builds a cooldown gate with the given suppression window.
func NewGate(window time.Duration, opts ...GateOption) *Gate {
	g := &Gate{
		window:  window,
		now:     time.Now,
		entries: make(map[page.ElementID]map[event.Type]time.Time),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.lastSweep = g.now()
	return g
}

// ShouldSend reports whether a signal of the given kind may be forwarded for
// the element right now. Different kinds from the same element never block
// each other.
func (g *Gate) ShouldSend(id page.ElementID, kind event.Type) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.maybeSweep(now)

	kinds := g.entries[id]
	if last, ok := kinds[kind]; ok && now.Sub(last) < g.window {
		return false
	}
	if kinds == nil {
		kinds = make(map[event.Type]time.Time)
		g.entries[id] = kinds
	}
	kinds[kind] = now
	return true
}

// maybeSweep drops entries whose every stamp has aged out of the window.
// Expired stamps can never suppress anything again, so removal is safe.
func (g *Gate) maybeSweep(now time.Time) {
	if now.Sub(g.lastSweep) < sweepInterval {
		return
	}
	g.lastSweep = now
	for id, kinds := range g.entries {
		for kind, last := range kinds {
			if now.Sub(last) >= g.window {
				delete(kinds, kind)
			}
		}
		if len(kinds) == 0 {
			delete(g.entries, id)
		}
	}
}
