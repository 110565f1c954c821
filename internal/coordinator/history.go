package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"riskwatch/internal/event"
	"riskwatch/internal/platform/metrics"
	"riskwatch/internal/store"
)

const (
	// MaxEvents bounds the local event history.
	MaxEvents = 100
	// MaxDomains bounds the visited-domain history.
	MaxDomains = 50
)

// Mirror is the best-effort secondary persistence endpoint. Failures are
// swallowed; it must never block primary local storage.
type Mirror interface {
	PostEvent(ctx context.Context, rec event.Record) error
	PostDomain(ctx context.Context, pageURL string) error
}

// History owns the two bounded ring buffers in the shared store. All mutation
// goes through its mutex, closing the read-modify-write race between
// concurrent coordinator paths: the store itself offers no atomicity.
type History struct {
	mu      sync.Mutex
	store   store.Store
	mirror  Mirror
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithMirror attaches the best-effort remote mirror.
func WithMirror(m Mirror) HistoryOption {
	return func(h *History) { h.mirror = m }
}

// WithHistoryLogger attaches a logger.
func WithHistoryLogger(logger *slog.Logger) HistoryOption {
	return func(h *History) { h.logger = logger }
}

// WithHistoryMetrics attaches pipeline metrics.
func WithHistoryMetrics(m *metrics.Metrics) HistoryOption {
	return func(h *History) { h.metrics = m }
}

// NewHistory builds the single writer over the shared store's ring buffers.
func NewHistory(st store.Store, opts ...HistoryOption) *History {
	h := &History{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddRecord prepends a resolved record to the events buffer and its hostname
// to the domains buffer, trimming both. A store write failure is fatal to the
// record: it is logged and the record is lost, the pipeline moves on.
func (h *History) AddRecord(ctx context.Context, rec event.Record) error {
	h.mu.Lock()
	err := h.addRecordLocked(ctx, rec)
	h.mu.Unlock()
	if err != nil {
		return err
	}

	if h.metrics != nil {
		h.metrics.RecordsStored.WithLabelValues(string(rec.Type)).Inc()
	}
	if h.mirror != nil {
		if mirrorErr := h.mirror.PostEvent(ctx, rec); mirrorErr != nil {
			h.logger.Debug("event mirror failed", "error", mirrorErr)
		}
	}
	return nil
}

func (h *History) addRecordLocked(ctx context.Context, rec event.Record) error {
	events := h.loadEvents(ctx)
	events = append([]event.Record{rec}, events...)
	if len(events) > MaxEvents {
		events = events[:MaxEvents]
	}
	if err := h.save(ctx, store.KeyEvents, events); err != nil {
		return fmt.Errorf("persist events: %w", err)
	}

	if host := Hostname(rec.URL); host != "" {
		if err := h.save(ctx, store.KeyDomains, pushDomain(h.loadDomains(ctx), host)); err != nil {
			return fmt.Errorf("persist domains: %w", err)
		}
	}
	return nil
}

// AddDomain records a visited page's hostname on navigation completion, with
// a best-effort mirror to the remote service.
func (h *History) AddDomain(ctx context.Context, pageURL string) error {
	host := Hostname(pageURL)
	if host == "" {
		return nil
	}

	h.mu.Lock()
	err := h.save(ctx, store.KeyDomains, pushDomain(h.loadDomains(ctx), host))
	h.mu.Unlock()
	if err != nil {
		return fmt.Errorf("persist domains: %w", err)
	}

	if h.mirror != nil {
		if mirrorErr := h.mirror.PostDomain(ctx, pageURL); mirrorErr != nil {
			h.logger.Debug("domain mirror failed", "error", mirrorErr)
		}
	}
	return nil
}

// Events returns the stored history, newest first.
func (h *History) Events(ctx context.Context) ([]event.Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadEvents(ctx), nil
}

// Domains returns the visited-domain history, most recent first.
func (h *History) Domains(ctx context.Context) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadDomains(ctx), nil
}

// Reset drops both ring buffers.
func (h *History) Reset(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Remove(ctx, store.KeyEvents, store.KeyDomains)
}

func (h *History) loadEvents(ctx context.Context) []event.Record {
	var events []event.Record
	h.load(ctx, store.KeyEvents, &events)
	return events
}

func (h *History) loadDomains(ctx context.Context) []string {
	var domains []string
	h.load(ctx, store.KeyDomains, &domains)
	return domains
}

// load decodes a stored buffer. Absent or undecodable data degrades to the
// empty list so a corrupt entry cannot wedge the pipeline.
func (h *History) load(ctx context.Context, key string, out any) {
	value, err := h.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		h.logger.Warn("history read failed", "key", key, "error", err)
		return
	}
	if err := json.Unmarshal(value, out); err != nil {
		h.logger.Warn("history entry corrupt, starting fresh", "key", key, "error", err)
	}
}

func (h *History) save(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return h.store.Set(ctx, key, encoded)
}

// pushDomain moves host to the front without duplicating it and trims to the
// bound.
func pushDomain(domains []string, host string) []string {
	next := make([]string, 0, len(domains)+1)
	next = append(next, host)
	for _, d := range domains {
		if d != host {
			next = append(next, d)
		}
	}
	if len(next) > MaxDomains {
		next = next[:MaxDomains]
	}
	return next
}

// Hostname extracts the bare hostname for the domains list, dropping a
// leading "www.". Any parse failure degrades to the empty string.
func Hostname(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
