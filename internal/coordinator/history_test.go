package coordinator

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"riskwatch/internal/event"
	"riskwatch/internal/store"
)

type HistorySuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.Memory
	history *History
}

func TestHistorySuite(t *testing.T) {
	suite.Run(t, new(HistorySuite))
}

func (s *HistorySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewMemory()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.history = NewHistory(s.store, WithHistoryLogger(logger))
}

func record(url string, n int) event.Record {
	return event.Record{
		Timestamp: time.Date(2025, 6, 1, 0, 0, n, 0, time.UTC),
		Type:      event.TypePII,
		URL:       url,
		Reasons:   []string{fmt.Sprintf("r%d", n)},
		OK:        true,
	}
}

func (s *HistorySuite) TestEventsBoundedNewestFirst() {
	for i := 0; i < MaxEvents+10; i++ {
		s.Require().NoError(s.history.AddRecord(s.ctx, record("https://example.com", i)))
	}

	events, err := s.history.Events(s.ctx)
	s.Require().NoError(err)
	s.Len(events, MaxEvents)
	s.Equal([]string{fmt.Sprintf("r%d", MaxEvents+9)}, events[0].Reasons, "newest first")
	s.Equal([]string{"r10"}, events[MaxEvents-1].Reasons, "oldest ten evicted")
}

func (s *HistorySuite) TestDomainsDedupeMoveToFront() {
	s.Require().NoError(s.history.AddDomain(s.ctx, "https://a.com/x"))
	s.Require().NoError(s.history.AddDomain(s.ctx, "https://b.com/y"))
	s.Require().NoError(s.history.AddDomain(s.ctx, "https://a.com/z"))

	domains, err := s.history.Domains(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"a.com", "b.com"}, domains)
}

func (s *HistorySuite) TestDomainsBounded() {
	for i := 0; i < MaxDomains+5; i++ {
		s.Require().NoError(s.history.AddDomain(s.ctx, fmt.Sprintf("https://site%d.com", i)))
	}

	domains, err := s.history.Domains(s.ctx)
	s.Require().NoError(err)
	s.Len(domains, MaxDomains)
	s.Equal(fmt.Sprintf("site%d.com", MaxDomains+4), domains[0])
}

func (s *HistorySuite) TestAddRecordUpdatesDomains() {
	s.Require().NoError(s.history.AddRecord(s.ctx, record("https://www.shop.example/cart", 1)))

	domains, err := s.history.Domains(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"shop.example"}, domains, "www prefix stripped")
}

func (s *HistorySuite) TestMalformedURLSkipsDomains() {
	s.Require().NoError(s.history.AddRecord(s.ctx, record("::not a url::", 1)))

	events, err := s.history.Events(s.ctx)
	s.Require().NoError(err)
	s.Len(events, 1, "record still stored")

	domains, err := s.history.Domains(s.ctx)
	s.Require().NoError(err)
	s.Empty(domains)
}

func (s *HistorySuite) TestReset() {
	s.Require().NoError(s.history.AddRecord(s.ctx, record("https://example.com", 1)))

	s.Require().NoError(s.history.Reset(s.ctx))

	events, err := s.history.Events(s.ctx)
	s.Require().NoError(err)
	s.Empty(events)
	domains, err := s.history.Domains(s.ctx)
	s.Require().NoError(err)
	s.Empty(domains)
}

func (s *HistorySuite) TestCorruptBufferDegradesToEmpty() {
	s.Require().NoError(s.store.Set(s.ctx, store.KeyEvents, []byte("{corrupt")))

	s.Require().NoError(s.history.AddRecord(s.ctx, record("https://example.com", 1)))

	events, err := s.history.Events(s.ctx)
	s.Require().NoError(err)
	s.Len(events, 1)
}

type captureMirror struct {
	events  []event.Record
	domains []string
	err     error
}

func (c *captureMirror) PostEvent(_ context.Context, rec event.Record) error {
	c.events = append(c.events, rec)
	return c.err
}

func (c *captureMirror) PostDomain(_ context.Context, pageURL string) error {
	c.domains = append(c.domains, pageURL)
	return c.err
}

func (s *HistorySuite) TestMirrorFailureSwallowed() {
	mirror := &captureMirror{err: fmt.Errorf("mirror down")}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	history := NewHistory(s.store, WithMirror(mirror), WithHistoryLogger(logger))

	s.Require().NoError(history.AddRecord(s.ctx, record("https://example.com", 1)))
	s.Require().NoError(history.AddDomain(s.ctx, "https://example.com"))

	s.Len(mirror.events, 1, "mirror attempted")
	s.Len(mirror.domains, 1)

	events, err := history.Events(s.ctx)
	s.Require().NoError(err)
	s.Len(events, 1, "primary storage unaffected by mirror failure")
}

func (s *HistorySuite) TestHostname() {
	s.Equal("example.com", Hostname("https://example.com/path"))
	s.Equal("example.com", Hostname("https://www.example.com"))
	s.Equal("", Hostname("::bad::"))
	s.Equal("", Hostname(""))
}
