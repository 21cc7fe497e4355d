//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"covault/internal/auth/models"
	"covault/internal/auth/store/session"
	id "covault/pkg/domain"
	"covault/pkg/platform/sentinel"
	"covault/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = session.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func makeSession(userID id.UserID, token string, ttl time.Duration) *models.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Session{
		Token:      token,
		UserID:     userID,
		Device:     "Chrome on Linux",
		IPAddress:  "203.0.113.7",
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(ttl),
	}
}

func (s *RedisStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	sess := makeSession(id.UserID(uuid.New()), "tok-1", time.Hour)

	s.Require().NoError(s.store.Create(ctx, sess))

	found, err := s.store.Find(ctx, "tok-1")
	s.Require().NoError(err)
	s.Equal(sess.UserID, found.UserID)
	s.Equal(sess.Device, found.Device)
	s.Equal(sess.IPAddress, found.IPAddress)
}

func (s *RedisStoreSuite) TestCreateDuplicateTokenConflicts() {
	ctx := context.Background()
	userID := id.UserID(uuid.New())

	s.Require().NoError(s.store.Create(ctx, makeSession(userID, "tok-1", time.Hour)))
	s.ErrorIs(s.store.Create(ctx, makeSession(userID, "tok-1", time.Hour)), sentinel.ErrConflict)
}

func (s *RedisStoreSuite) TestExpiredSessionRejectedAtCreate() {
	ctx := context.Background()
	s.ErrorIs(s.store.Create(ctx, makeSession(id.UserID(uuid.New()), "tok-1", -time.Minute)), sentinel.ErrExpired)
}

func (s *RedisStoreSuite) TestSessionExpiresWithTTL() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, makeSession(id.UserID(uuid.New()), "tok-1", time.Second)))

	time.Sleep(1500 * time.Millisecond)

	_, err := s.store.Find(ctx, "tok-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestTouchPreservesExpiry() {
	ctx := context.Background()
	sess := makeSession(id.UserID(uuid.New()), "tok-1", time.Hour)
	s.Require().NoError(s.store.Create(ctx, sess))

	later := time.Now().UTC().Add(10 * time.Minute).Truncate(time.Millisecond)
	s.Require().NoError(s.store.Touch(ctx, "tok-1", later))

	found, err := s.store.Find(ctx, "tok-1")
	s.Require().NoError(err)
	s.True(found.LastSeenAt.Equal(later))
	s.True(found.ExpiresAt.Equal(sess.ExpiresAt))
}

func (s *RedisStoreSuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, makeSession(id.UserID(uuid.New()), "tok-1", time.Hour)))

	s.Require().NoError(s.store.Delete(ctx, "tok-1"))

	_, err := s.store.Find(ctx, "tok-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(ctx, "tok-1"), sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestDeleteByUserRemovesOnlyTheirSessions() {
	ctx := context.Background()
	mine := id.UserID(uuid.New())
	other := id.UserID(uuid.New())

	s.Require().NoError(s.store.Create(ctx, makeSession(mine, "tok-mine-1", time.Hour)))
	s.Require().NoError(s.store.Create(ctx, makeSession(mine, "tok-mine-2", time.Hour)))
	s.Require().NoError(s.store.Create(ctx, makeSession(other, "tok-other", time.Hour)))

	s.Require().NoError(s.store.DeleteByUser(ctx, mine))

	_, err := s.store.Find(ctx, "tok-mine-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Find(ctx, "tok-mine-2")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Find(ctx, "tok-other")
	s.NoError(err)
}
