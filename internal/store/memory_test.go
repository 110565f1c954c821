package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) TestGetSet() {
	_, err := s.store.Get(s.ctx, KeyMonitoring)
	s.Require().ErrorIs(err, ErrNotFound)

	s.Require().NoError(s.store.Set(s.ctx, KeyMonitoring, []byte("paused")))

	value, err := s.store.Get(s.ctx, KeyMonitoring)
	s.Require().NoError(err)
	s.Equal([]byte("paused"), value)
}

func (s *MemoryStoreSuite) TestGetReturnsCopy() {
	s.Require().NoError(s.store.Set(s.ctx, KeyDomains, []byte(`["a.com"]`)))

	value, err := s.store.Get(s.ctx, KeyDomains)
	s.Require().NoError(err)
	value[0] = 'X'

	again, err := s.store.Get(s.ctx, KeyDomains)
	s.Require().NoError(err)
	s.Equal([]byte(`["a.com"]`), again)
}

func (s *MemoryStoreSuite) TestRemove() {
	s.Require().NoError(s.store.Set(s.ctx, KeyEvents, []byte("[]")))
	s.Require().NoError(s.store.Set(s.ctx, KeyDomains, []byte("[]")))

	s.Require().NoError(s.store.Remove(s.ctx, KeyEvents, KeyDomains, "missing"))

	_, err := s.store.Get(s.ctx, KeyEvents)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.store.Get(s.ctx, KeyDomains)
	s.ErrorIs(err, ErrNotFound)
}

func (s *MemoryStoreSuite) TestWatchDeliversChanges() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	changes, err := s.store.Watch(ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Set(s.ctx, KeyMonitoring, []byte("stopped")))

	select {
	case change := <-changes:
		s.Equal(KeyMonitoring, change.Key)
		s.Equal([]byte("stopped"), change.Value)
	case <-time.After(time.Second):
		s.Fail("no change notification delivered")
	}
}

func (s *MemoryStoreSuite) TestWatchDeliversRemoval() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	s.Require().NoError(s.store.Set(s.ctx, KeyMonitoring, []byte("paused")))

	changes, err := s.store.Watch(ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Remove(s.ctx, KeyMonitoring))

	select {
	case change := <-changes:
		s.Equal(KeyMonitoring, change.Key)
		s.Nil(change.Value)
	case <-time.After(time.Second):
		s.Fail("no removal notification delivered")
	}
}

func (s *MemoryStoreSuite) TestWatchClosesOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	changes, err := s.store.Watch(ctx)
	s.Require().NoError(err)

	cancel()

	select {
	case _, ok := <-changes:
		s.False(ok, "channel should close after cancel")
	case <-time.After(time.Second):
		s.Fail("channel not closed")
	}
}
