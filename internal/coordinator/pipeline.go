// Package coordinator is the authoritative endpoint of the detection
// pipeline. A single consuming goroutine re-validates monitoring state, calls
// the remote analysis service, and persists results (or degraded fallback
// results) into the bounded local ring buffers.
package coordinator

import (
	"context"
	"log/slog"
	"time"

	"riskwatch/internal/analyzer"
	"riskwatch/internal/event"
	"riskwatch/internal/monitor"
	"riskwatch/internal/platform/metrics"
)

// ReasonAPIUnavailable is the fallback reason stored when the analysis
// service cannot be reached: every qualifying interaction stays locally
// visible even with the remote down.
const ReasonAPIUnavailable = "api_unavailable"

// Analyzer is the remote analysis call the pipeline depends on.
type Analyzer interface {
	AnalyzeEvent(ctx context.Context, payload analyzer.Payload) ([]string, error)
}

// Pipeline consumes dispatched envelopes. Running it on exactly one goroutine
// serializes ring-buffer mutation with the rest of the coordinator context.
type Pipeline struct {
	state   *monitor.Cache
	remote  Analyzer
	history *History
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger attaches a logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

// WithPipelineMetrics attaches pipeline metrics.
func WithPipelineMetrics(m *metrics.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithPipelineClock injects a time source for tests.
func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline wires the coordinator over its collaborators.
func NewPipeline(state *monitor.Cache, remote Analyzer, history *History, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		state:   state,
		remote:  remote,
		history: history,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run consumes envelopes until ctx is cancelled. Each envelope is handled to
// completion, including its awaited remote call, before the next is taken.
func (p *Pipeline) Run(ctx context.Context, inbox <-chan event.Envelope) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-inbox:
			if !ok {
				return nil
			}
			p.Handle(ctx, env)
		}
	}
}

// Handle resolves one envelope. Monitoring state is re-checked here because
// it may have changed since the client's gate; a non-running state means no
// storage and no remote call.
func (p *Pipeline) Handle(ctx context.Context, env event.Envelope) {
	if !p.state.Running() {
		reply(env, event.Ack{Stopped: true})
		return
	}

	pageURL := env.URL
	if pageURL == "" {
		pageURL = env.Origin
	}

	rec := event.Record{
		Timestamp: p.now(),
		Type:      env.Type,
		URL:       pageURL,
		Meta:      env.Meta,
	}

	reasons, err := p.remote.AnalyzeEvent(ctx, analyzer.Payload{
		Type: env.Type,
		URL:  pageURL,
		Meta: env.Meta,
	})
	if err != nil {
		if p.metrics != nil {
			p.metrics.RemoteFailures.Inc()
		}
		p.logger.Warn("analysis service unavailable", "type", string(env.Type), "error", err)
		rec.OK = false
		rec.Reasons = []string{ReasonAPIUnavailable}
	} else {
		rec.OK = true
		rec.Reasons = reasons
	}

	if err := p.history.AddRecord(ctx, rec); err != nil {
		// Fatal to this record only: the event is lost, the pipeline is not.
		p.logger.Error("event record lost", "type", string(env.Type), "error", err)
		reply(env, event.Ack{})
		return
	}
	reply(env, event.Ack{OK: rec.OK})
}

func reply(env event.Envelope, ack event.Ack) {
	if env.Reply == nil {
		return
	}
	select {
	case env.Reply <- ack:
	default:
	}
}
