// Package analyzer is the HTTP client for the remote analysis service. The
// service judges the candidate events this process nominates; any network
// failure or non-2xx status is treated uniformly as the service being
// unavailable.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"riskwatch/internal/event"
)

// Payload is the body of an analysis request.
type Payload struct {
	Type event.Type  `json:"type"`
	URL  string      `json:"url"`
	Meta *event.Meta `json:"meta"`
}

type analyzeResponse struct {
	Reasons []string `json:"reasons"`
}

// Client talks to the analysis service. The zero http.Client timeout is
// deliberate: a hung remote call delays only the one event being resolved.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New builds a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnalyzeEvent submits a classified interaction and returns the service's
// reasons. A missing reasons field decodes as an empty sequence.
func (c *Client) AnalyzeEvent(ctx context.Context, payload Payload) ([]string, error) {
	var resp analyzeResponse
	if err := c.post(ctx, "/analyze/event", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Reasons == nil {
		resp.Reasons = []string{}
	}
	return resp.Reasons, nil
}

// PostEvent mirrors a locally stored record. Best effort; callers swallow the
// error.
func (c *Client) PostEvent(ctx context.Context, rec event.Record) error {
	return c.post(ctx, "/events", rec, nil)
}

// PostDomain mirrors a visited URL. Best effort; callers swallow the error.
func (c *Client) PostDomain(ctx context.Context, pageURL string) error {
	body := map[string]string{"url": pageURL}
	return c.post(ctx, "/domains", body, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post %s: unexpected status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
