// Package client is the in-page detector context: it wires raw page
// interactions to the classifier and cooldown gate and forwards qualifying
// signals to the coordinator over a bounded channel. Dispatch is
// fire-and-forget: a dropped or suppressed signal is simply re-attempted by
// whatever interaction comes next.
package client

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"riskwatch/internal/detect"
	"riskwatch/internal/event"
	"riskwatch/internal/monitor"
	"riskwatch/internal/page"
	"riskwatch/internal/platform/metrics"
)

// Submitter turns interactions into envelopes on the coordinator channel.
type Submitter struct {
	state   *monitor.Cache
	gate    *detect.Gate
	out     chan<- event.Envelope
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Submitter) { s.logger = logger }
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Submitter) { s.metrics = m }
}

// New builds a submitter dispatching into out.
func New(state *monitor.Cache, gate *detect.Gate, out chan<- event.Envelope, opts ...Option) *Submitter {
	s := &Submitter{
		state:  state,
		gate:   gate,
		out:    out,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run consumes interactions until ctx is cancelled or the source closes.
func (s *Submitter) Run(ctx context.Context, in <-chan page.Interaction) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ia, ok := <-in:
			if !ok {
				return nil
			}
			s.Handle(ia)
		}
	}
}

// Handle classifies one interaction and dispatches at most one envelope.
func (s *Submitter) Handle(ia page.Interaction) {
	switch ia.Type {
	case page.InteractionInput:
		s.handleInput(ia)
	case page.InteractionClick:
		s.handleClick(ia)
	case page.InteractionSubmit:
		s.handleSubmit(ia)
	}
}

// handleInput runs the payment detector first and returns on a match, never
// invoking the PII detector for that interaction. A field matching both
// vocabularies is reported exclusively as payment.
func (s *Submitter) handleInput(ia page.Interaction) {
	input, ok := ia.Target.(*page.Input)
	if !ok {
		return
	}

	if sig := detect.PaymentFromField(input); sig != nil {
		s.send(sig, input.ID, ia.PageURL)
		return
	}
	if sig := detect.PIIFromField(input); sig != nil {
		s.send(sig, input.ID, ia.PageURL)
	}
}

// handleClick accepts only trusted primary-button clicks. Anchors are checked
// for download intent first; a non-download anchor still gets the
// payment-button check, matching link-styled purchase buttons.
func (s *Submitter) handleClick(ia page.Interaction) {
	if !ia.Trusted || ia.Button != 0 {
		return
	}

	switch target := ia.Target.(type) {
	case *page.Anchor:
		sig, terminal := detect.DownloadFromAnchor(target, ia.PageURL)
		if sig != nil {
			s.send(sig, target.ID, ia.PageURL)
			return
		}
		if terminal {
			return
		}
		if btn := detect.PaymentFromButton(target.Text, "", ""); btn != nil {
			s.send(btn, target.ID, ia.PageURL)
		}
	case *page.Button:
		if sig := detect.PaymentFromButton(target.Text, target.Value, target.AriaLabel); sig != nil {
			s.send(sig, target.ID, ia.PageURL)
		}
	}
}

func (s *Submitter) handleSubmit(ia page.Interaction) {
	form, ok := ia.Target.(*page.Form)
	if !ok {
		return
	}
	if sig := detect.PaymentFromForm(form); sig != nil {
		s.send(sig, form.ID, ia.PageURL)
	}
}

// send applies the monitoring and cooldown gates, then dispatches without
// waiting for a result. A full channel drops the envelope: the cooldown gate,
// not queue backpressure, bounds repeat delivery.
func (s *Submitter) send(sig *detect.Signal, id page.ElementID, pageURL string) {
	if !s.state.Running() {
		return
	}
	if id != 0 && !s.gate.ShouldSend(id, sig.Type) {
		if s.metrics != nil {
			s.metrics.CooldownSuppressed.Inc()
		}
		return
	}

	if s.metrics != nil {
		s.metrics.SignalsDetected.WithLabelValues(string(sig.Type), string(sig.Trigger)).Inc()
	}

	env := event.Envelope{
		ID:     uuid.New(),
		Type:   sig.Type,
		URL:    pageURL,
		Meta:   sig.Meta(),
		Origin: pageURL,
	}
	select {
	case s.out <- env:
	default:
		if s.metrics != nil {
			s.metrics.DispatchDropped.Inc()
		}
		s.logger.Warn("coordinator channel full, signal dropped", "type", string(sig.Type))
	}
}
