package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 5
	testWindow = time.Minute
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemoryStore(WithMemoryClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) exhaust(key string) {
	for range testLimit {
		res, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
		s.Require().NoError(err)
		s.Require().True(res.Allowed)
	}
}

func (s *InMemoryStoreSuite) TestAllow() {
	s.Run("first request reports remaining budget", func() {
		res, err := s.store.Allow(s.ctx, "first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(testLimit, res.Limit)
		s.Equal(testLimit-1, res.Remaining)
		s.Equal(s.now.Add(testWindow), res.ResetAt)
	})

	s.Run("request over limit denied with retry hint", func() {
		s.exhaust("over")
		s.now = s.now.Add(10 * time.Second)

		res, err := s.store.Allow(s.ctx, "over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(res.Allowed)
		s.Equal(0, res.Remaining)
		s.Equal(50*time.Second, res.RetryAfter)
	})

	s.Run("keys are independent", func() {
		s.exhaust("a")
		res, err := s.store.Allow(s.ctx, "b", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(res.Allowed)
	})
}

func (s *InMemoryStoreSuite) TestWindowSlides() {
	s.exhaust("slide")
	s.now = s.now.Add(testWindow + time.Millisecond)

	res, err := s.store.Allow(s.ctx, "slide", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(testLimit-1, res.Remaining)
}

func (s *InMemoryStoreSuite) TestReset() {
	s.exhaust("reset")
	s.Require().NoError(s.store.Reset(s.ctx, "reset"))

	res, err := s.store.Allow(s.ctx, "reset", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *InMemoryStoreSuite) TestSweepDropsIdleKeys() {
	s.exhaust("idle")
	s.now = s.now.Add(2 * testWindow)
	_, err := s.store.Allow(s.ctx, "busy", testLimit, testWindow)
	s.Require().NoError(err)

	s.Equal(1, s.store.Sweep(testWindow))
	s.Len(s.store.windows, 1)
}

func (s *InMemoryStoreSuite) TestConcurrentCallersNeverExceedLimit() {
	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.store.Allow(s.ctx, "race", testLimit, testWindow)
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(testLimit, allowed)
}
