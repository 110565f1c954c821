package coordinator

import (
	"context"
	"log/slog"

	"riskwatch/internal/monitor"
)

// Navigation records visited domains from tab-navigation-complete signals.
// It shares the coordinator's history writer and is gated on monitoring state
// like every other recorder.
type Navigation struct {
	state   *monitor.Cache
	history *History
	logger  *slog.Logger
}

// NewNavigation builds the navigation watcher.
func NewNavigation(state *monitor.Cache, history *History, logger *slog.Logger) *Navigation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigation{state: state, history: history, logger: logger}
}

// Run consumes completed-navigation URLs until ctx is cancelled.
func (n *Navigation) Run(ctx context.Context, urls <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pageURL, ok := <-urls:
			if !ok {
				return nil
			}
			if !n.state.Running() {
				continue
			}
			if err := n.history.AddDomain(ctx, pageURL); err != nil {
				n.logger.Warn("domain record lost", "error", err)
			}
		}
	}
}
