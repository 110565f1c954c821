// Package httptransport exposes the daemon's JSON surfaces: the ingest
// endpoints the page instrumentation reports through, and the control/report
// endpoints the operator UI consumes. It stays thin and carries no detection
// logic of its own.
package httptransport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"riskwatch/internal/coordinator"
	"riskwatch/internal/downloads"
	"riskwatch/internal/event"
	"riskwatch/internal/monitor"
	"riskwatch/internal/page"
)

// Handler is the thin HTTP layer over the detection pipeline's collaborators.
type Handler struct {
	authority    *monitor.Authority
	state        *monitor.Cache
	history      *coordinator.History
	interactions chan<- page.Interaction
	navigations  chan<- string
	deltas       chan<- downloads.Delta
	logger       *slog.Logger
}

// NewHandler wires the HTTP layer. The three channels feed the detector and
// coordinator contexts.
func NewHandler(
	authority *monitor.Authority,
	state *monitor.Cache,
	history *coordinator.History,
	interactions chan<- page.Interaction,
	navigations chan<- string,
	deltas chan<- downloads.Delta,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		authority:    authority,
		state:        state,
		history:      history,
		interactions: interactions,
		navigations:  navigations,
		deltas:       deltas,
		logger:       logger,
	}
}

type interactionRequest struct {
	Type    string          `json:"type"`
	Element page.RawElement `json:"element"`
	PageURL string          `json:"pageUrl"`
	Trusted bool            `json:"trusted"`
	Button  int             `json:"button"`
}

type navigationRequest struct {
	URL string `json:"url"`
}

type downloadRequest struct {
	Item     downloads.Item `json:"item"`
	Previous string         `json:"previous"`
	Current  string         `json:"current"`
}

type monitoringRequest struct {
	State string `json:"state"`
}

type statusResponse struct {
	Monitoring string `json:"monitoring"`
	Events     int    `json:"events"`
	Domains    int    `json:"domains"`
}

// handleIngestInteraction accepts one observed page event. The response never
// reveals whether a signal was produced; detection runs asynchronously.
func (h *Handler) handleIngestInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	element, err := page.Adapt(req.Element)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ia := page.Interaction{
		Type:    page.InteractionType(req.Type),
		Target:  element,
		PageURL: req.PageURL,
		Trusted: req.Trusted,
		Button:  req.Button,
	}
	switch ia.Type {
	case page.InteractionInput, page.InteractionClick, page.InteractionSubmit:
	default:
		writeError(w, http.StatusBadRequest, "unknown interaction type")
		return
	}

	select {
	case h.interactions <- ia:
	default:
		// Detector backlog: the interaction is dropped, the next one is a
		// fresh opportunity to signal.
		h.logger.Warn("interaction queue full, dropping")
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleIngestNavigation(w http.ResponseWriter, r *http.Request) {
	var req navigationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	select {
	case h.navigations <- req.URL:
	default:
		h.logger.Warn("navigation queue full, dropping")
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleIngestDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	delta := downloads.Delta{
		Item:     req.Item,
		Previous: downloads.State(req.Previous),
		Current:  downloads.State(req.Current),
	}
	select {
	case h.deltas <- delta:
	default:
		h.logger.Warn("download queue full, dropping")
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	events, err := h.history.Events(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	domains, err := h.history.Domains(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Monitoring: string(h.state.Current()),
		Events:     len(events),
		Domains:    len(domains),
	})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.history.Events(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if events == nil {
		events = []event.Record{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) handleDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.history.Domains(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if domains == nil {
		domains = []string{}
	}
	writeJSON(w, http.StatusOK, domains)
}

func (h *Handler) handleSetMonitoring(w http.ResponseWriter, r *http.Request) {
	var req monitoringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	state, err := h.authority.Set(r.Context(), req.State)
	if errors.Is(err, monitor.ErrInvalidState) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "monitoring state not persisted")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(state)})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "reset failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
