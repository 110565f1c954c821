package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"riskwatch/internal/store"
)

// Cache is one execution context's local copy of the monitoring state. All
// gating decisions read the cache; the Run loop keeps it fresh from store
// change notifications, so the value is eventually consistent across
// contexts.
type Cache struct {
	mu     sync.RWMutex
	state  State
	logger *slog.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger attaches a logger for state transitions.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

// NewCache builds a cache in the default running state.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{state: StateRunning}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns the cached state. Never blocks on the store.
func (c *Cache) Current() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Running is the common gating read.
func (c *Cache) Running() bool {
	return c.Current() == StateRunning
}

// Apply installs an observed state change. Run uses it for every store
// notification; it is also the seam for driving a cache directly in tests.
func (c *Cache) Apply(state State) {
	c.mu.Lock()
	prev := c.state
	c.state = state
	c.mu.Unlock()
	if prev != state && c.logger != nil {
		c.logger.Info("monitoring state changed", "from", string(prev), "to", string(state))
	}
}

// Run seeds the cache from the store and then follows change notifications
// for the monitoring key until ctx is cancelled. A removed key falls back to
// running, matching the absent-value default.
func (c *Cache) Run(ctx context.Context, st store.Store) error {
	value, err := st.Get(ctx, store.KeyMonitoring)
	switch {
	case err == nil:
		c.Apply(Parse(string(value)))
	case errors.Is(err, store.ErrNotFound):
		c.Apply(StateRunning)
	default:
		return err
	}

	changes, err := st.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return ctx.Err()
			}
			if change.Key != store.KeyMonitoring {
				continue
			}
			c.Apply(Parse(string(change.Value)))
		}
	}
}
