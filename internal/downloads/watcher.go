// Package downloads watches host-level download lifecycle transitions and
// applies a narrower classification than the interaction pipeline: the
// extension allow-list alone decides, and no remote call is made. A
// completed download on the list is already a high-confidence signal.
package downloads

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"riskwatch/internal/coordinator"
	"riskwatch/internal/detect"
	"riskwatch/internal/event"
	"riskwatch/internal/monitor"
	"riskwatch/internal/platform/metrics"
)

// ReasonDownloadComplete marks records produced by this watcher.
const ReasonDownloadComplete = "download_complete"

// State is a download's lifecycle phase as reported by the host.
type State string

const (
	StateInProgress  State = "in_progress"
	StateComplete    State = "complete"
	StateInterrupted State = "interrupted"
)

// Item describes one download as the host knows it.
type Item struct {
	ID            uuid.UUID
	URL           string
	FinalURL      string
	Filename      string // final saved path
	SelfInitiated bool   // started by this system's own instrumentation
}

// Delta is one lifecycle transition.
type Delta struct {
	Item     Item
	Previous State
	Current  State
}

// Watcher filters completed downloads into the shared history.
type Watcher struct {
	state   *monitor.Cache
	history *coordinator.History
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

// NewWatcher builds the download watcher over the shared history writer.
func NewWatcher(state *monitor.Cache, history *coordinator.History, opts ...Option) *Watcher {
	w := &Watcher{
		state:   state,
		history: history,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes lifecycle deltas until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, deltas <-chan Delta) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delta, ok := <-deltas:
			if !ok {
				return nil
			}
			w.Handle(ctx, delta)
		}
	}
}

// Handle records one transition if it survives every filter: monitoring must
// be running, the transition must be into complete, the download must not be
// self-initiated, the URL must be http(s), and the extension must be on the
// risk allow-list.
func (w *Watcher) Handle(ctx context.Context, delta Delta) {
	if !w.state.Running() {
		return
	}
	if delta.Current != StateComplete {
		return
	}

	item := delta.Item
	if item.SelfInitiated {
		w.ignored()
		return
	}

	downloadURL := item.FinalURL
	if downloadURL == "" {
		downloadURL = item.URL
	}
	if !strings.HasPrefix(downloadURL, "http") {
		w.ignored()
		return
	}

	filename := basename(item.Filename)
	ext := extensionOf(filename)
	if ext == "" {
		ext = urlExtension(downloadURL)
	}
	if !flagged(ext) {
		w.ignored()
		return
	}

	rec := event.Record{
		Timestamp: w.now(),
		Type:      event.TypeDownload,
		URL:       downloadURL,
		Meta:      &event.Meta{Filename: filename},
		Reasons:   []string{ReasonDownloadComplete},
		OK:        true,
	}
	if err := w.history.AddRecord(ctx, rec); err != nil {
		w.logger.Warn("download record lost", "filename", filename, "error", err)
		return
	}
	w.logger.Info("download recorded", "filename", filename, "ext", ext)
}

func (w *Watcher) ignored() {
	if w.metrics != nil {
		w.metrics.DownloadsIgnored.Inc()
	}
}

// basename takes the trailing segment across both path separator styles.
func basename(path string) string {
	if path == "" {
		return ""
	}
	segments := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

func extensionOf(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return strings.ToLower(filename[i+1:])
	}
	return ""
}

func urlExtension(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return extensionOf(basename(parsed.Path))
}

func flagged(ext string) bool {
	for _, e := range detect.DownloadExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
