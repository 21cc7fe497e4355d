package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"covault/internal/auth/models"
	id "covault/pkg/domain"
	"covault/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix   = "session:"
	userIndexKeyPrefix = "user_sessions:"
)

// RedisStore persists sessions in Redis. The session TTL is delegated to
// Redis key expiry, so an expired session simply stops existing. A per-user
// set indexes tokens for bulk revocation.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(storedSession{
		Token:      session.Token,
		UserID:     session.UserID.String(),
		Device:     session.Device,
		IPAddress:  session.IPAddress,
		CreatedAt:  session.CreatedAt,
		LastSeenAt: session.LastSeenAt,
		ExpiresAt:  session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return sentinel.ErrExpired
	}

	ok, err := s.client.SetNX(ctx, sessionKeyPrefix+session.Token, payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}

	userKey := userIndexKeyPrefix + session.UserID.String()
	if err := s.client.SAdd(ctx, userKey, session.Token).Err(); err != nil {
		return fmt.Errorf("index session: %w", err)
	}
	// Keep the index alive at least as long as its newest session.
	if err := s.client.Expire(ctx, userKey, ttl).Err(); err != nil {
		return fmt.Errorf("expire session index: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, token string) (*models.Session, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return unmarshalSession(payload)
}

func (s *RedisStore) Touch(ctx context.Context, token string, lastSeenAt time.Time) error {
	key := sessionKeyPrefix + token
	session, err := s.Find(ctx, token)
	if err != nil {
		return err
	}

	session.LastSeenAt = lastSeenAt
	payload, err := json.Marshal(toStored(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	// KeepTTL preserves the original expiry; touching never extends a session.
	if err := s.client.Set(ctx, key, payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	session, err := s.Find(ctx, token)
	if err != nil {
		return err
	}

	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := s.client.SRem(ctx, userIndexKeyPrefix+session.UserID.String(), token).Err(); err != nil {
		return fmt.Errorf("unindex session: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteByUser(ctx context.Context, userID id.UserID) error {
	userKey := userIndexKeyPrefix + userID.String()
	tokens, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, sessionKeyPrefix+token)
	}
	keys = append(keys, userKey)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

type storedSession struct {
	Token      string    `json:"token"`
	UserID     string    `json:"user_id"`
	Device     string    `json:"device"`
	IPAddress  string    `json:"ip_address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func toStored(session *models.Session) storedSession {
	return storedSession{
		Token:      session.Token,
		UserID:     session.UserID.String(),
		Device:     session.Device,
		IPAddress:  session.IPAddress,
		CreatedAt:  session.CreatedAt,
		LastSeenAt: session.LastSeenAt,
		ExpiresAt:  session.ExpiresAt,
	}
}

func unmarshalSession(payload []byte) (*models.Session, error) {
	var stored storedSession
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	userID, err := id.ParseUserID(stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("unmarshal session user: %w", err)
	}
	return &models.Session{
		Token:      stored.Token,
		UserID:     userID,
		Device:     stored.Device,
		IPAddress:  stored.IPAddress,
		CreatedAt:  stored.CreatedAt,
		LastSeenAt: stored.LastSeenAt,
		ExpiresAt:  stored.ExpiresAt,
	}, nil
}
