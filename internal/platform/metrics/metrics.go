package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the detection pipeline.
type Metrics struct {
	SignalsDetected    *prometheus.CounterVec
	CooldownSuppressed prometheus.Counter
	DispatchDropped    prometheus.Counter
	RecordsStored      *prometheus.CounterVec
	RemoteFailures     prometheus.Counter
	DownloadsIgnored   prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		SignalsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskwatch_signals_detected_total",
			Help: "Classified interactions by event type and trigger",
		}, []string{"type", "trigger"}),
		CooldownSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "riskwatch_cooldown_suppressed_total",
			Help: "Signals dropped by the per-element cooldown gate",
		}),
		DispatchDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "riskwatch_dispatch_dropped_total",
			Help: "Envelopes dropped because the coordinator channel was full",
		}),
		RecordsStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskwatch_records_stored_total",
			Help: "Event records written to local history by type",
		}, []string{"type"}),
		RemoteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "riskwatch_remote_failures_total",
			Help: "Analysis service calls that failed or returned non-2xx",
		}),
		DownloadsIgnored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "riskwatch_downloads_ignored_total",
			Help: "Completed downloads filtered out before recording",
		}),
	}
}
