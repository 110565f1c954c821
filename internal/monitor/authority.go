package monitor

import (
	"context"
	"errors"
	"fmt"

	"riskwatch/internal/store"
)

// ErrInvalidState rejects writes that are not one of the three lifecycle
// values.
var ErrInvalidState = errors.New("monitor: invalid state")

// Authority is the single writer of the monitoring value. Only the control
// surface holds one; detection components gate on a Cache instead.
type Authority struct {
	store store.Store
}

// NewAuthority builds the control-surface writer over the shared store.
func NewAuthority(st store.Store) *Authority {
	return &Authority{store: st}
}

// Set validates and persists a new lifecycle state. Caches pick the change up
// via the store's notification channel.
func (a *Authority) Set(ctx context.Context, raw string) (State, error) {
	if !Valid(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, raw)
	}
	state := State(raw)
	if err := a.store.Set(ctx, store.KeyMonitoring, []byte(state)); err != nil {
		return "", fmt.Errorf("persist monitoring state: %w", err)
	}
	return state, nil
}

// Get reads the authoritative stored value, defaulting to running.
func (a *Authority) Get(ctx context.Context) (State, error) {
	value, err := a.store.Get(ctx, store.KeyMonitoring)
	if errors.Is(err, store.ErrNotFound) {
		return StateRunning, nil
	}
	if err != nil {
		return "", err
	}
	return Parse(string(value)), nil
}
