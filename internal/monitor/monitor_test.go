package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"riskwatch/internal/store"
)

type MonitorSuite struct {
	suite.Suite
	ctx   context.Context
	store *store.Memory
}

func TestMonitorSuite(t *testing.T) {
	suite.Run(t, new(MonitorSuite))
}

func (s *MonitorSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewMemory()
}

func (s *MonitorSuite) TestParse() {
	s.Equal(StateRunning, Parse("running"))
	s.Equal(StatePaused, Parse("paused"))
	s.Equal(StateStopped, Parse("stopped"))
	s.Equal(StateRunning, Parse(""), "absent value defaults to running")
	s.Equal(StateRunning, Parse("bogus"), "unknown value defaults to running")
}

func (s *MonitorSuite) TestCacheDefaultsToRunning() {
	cache := NewCache()
	s.Equal(StateRunning, cache.Current())
	s.True(cache.Running())
}

func (s *MonitorSuite) TestCacheFollowsStoreChanges() {
	s.Require().NoError(s.store.Set(s.ctx, store.KeyMonitoring, []byte("paused")))

	cache := NewCache()
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cache.Run(ctx, s.store) }()

	s.Eventually(func() bool {
		return cache.Current() == StatePaused
	}, time.Second, 5*time.Millisecond, "cache should seed from the store")

	s.Require().NoError(s.store.Set(s.ctx, store.KeyMonitoring, []byte("stopped")))
	s.Eventually(func() bool {
		return cache.Current() == StateStopped
	}, time.Second, 5*time.Millisecond, "cache should follow notifications")

	// Removing the key falls back to the default.
	s.Require().NoError(s.store.Remove(s.ctx, store.KeyMonitoring))
	s.Eventually(func() bool {
		return cache.Current() == StateRunning
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("cache run loop did not stop")
	}
}

func (s *MonitorSuite) TestCacheIgnoresOtherKeys() {
	cache := NewCache()
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	go func() { _ = cache.Run(ctx, s.store) }()

	s.Require().NoError(s.store.Set(s.ctx, store.KeyEvents, []byte("[]")))

	time.Sleep(20 * time.Millisecond)
	s.Equal(StateRunning, cache.Current())
}

func (s *MonitorSuite) TestAuthoritySetAndGet() {
	authority := NewAuthority(s.store)

	state, err := authority.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal(StateRunning, state, "absent key reads as running")

	state, err = authority.Set(s.ctx, "paused")
	s.Require().NoError(err)
	s.Equal(StatePaused, state)

	state, err = authority.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal(StatePaused, state)
}

func (s *MonitorSuite) TestAuthorityRejectsInvalidState() {
	authority := NewAuthority(s.store)

	_, err := authority.Set(s.ctx, "hibernating")
	s.Require().ErrorIs(err, ErrInvalidState)

	_, getErr := s.store.Get(s.ctx, store.KeyMonitoring)
	s.ErrorIs(getErr, store.ErrNotFound, "invalid state must not be persisted")
}
