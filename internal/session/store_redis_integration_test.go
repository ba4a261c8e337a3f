//go:build integration

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veil/pkg/platform/sentinel"
	"veil/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisStore
	now   time.Time
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.now = time.Now().UTC().Truncate(time.Second)
	s.store = NewRedisStore(s.redis.Client, WithRedisClock(func() time.Time { return s.now }))
}

func (s *RedisStoreSuite) TestRoundTripKeepsIdentity() {
	ctx := context.Background()
	sess := newTestSession(s.now.Add(time.Hour))
	s.Require().NoError(s.store.Save(ctx, sess))

	got, err := s.store.Get(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.ID, got.ID)
	s.Equal(sess.Permissions, got.Permissions)
	s.Equal("user-1", got.realUserID)
	s.True(sess.ExpiresAt.Equal(got.ExpiresAt))

	ttl, err := s.redis.Client.TTL(ctx, sessionKey(sess.ID)).Result()
	s.Require().NoError(err)
	s.InDelta(time.Hour.Seconds(), ttl.Seconds(), 5)

	members, err := s.store.CompanySessions(ctx, "acme")
	s.Require().NoError(err)
	s.Equal([]string{sess.ID.String()}, members)
}

func (s *RedisStoreSuite) TestListExpiredAndDelete() {
	ctx := context.Background()
	live := newTestSession(s.now.Add(time.Hour))
	expired := newTestSession(s.now.Add(-time.Minute))
	s.Require().NoError(s.store.Save(ctx, live))
	s.Require().NoError(s.store.Save(ctx, expired))

	ids, err := s.store.ListExpired(ctx, s.now)
	s.Require().NoError(err)
	s.Require().Len(ids, 1)
	s.Equal(expired.ID, ids[0])

	s.Require().NoError(s.store.Delete(ctx, expired.ID))
	s.ErrorIs(s.store.Delete(ctx, expired.ID), sentinel.ErrNotFound)

	ids, err = s.store.ListExpired(ctx, s.now)
	s.Require().NoError(err)
	s.Empty(ids)

	members, err := s.store.CompanySessions(ctx, "acme")
	s.Require().NoError(err)
	s.Equal([]string{live.ID.String()}, members)
}

func (s *RedisStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), newTestSession(s.now).ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
