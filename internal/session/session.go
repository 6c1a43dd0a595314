package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locals keys set by the auth middleware.
const (
	KeyUserID    = "user_id"
	KeyRole      = "role"
	KeyJTI       = "jti"
	KeyExpiresAt = "expires_at"
)

// Store keeps session moderation state in redis: revoked token ids and
// blocked user flags. Without redis every check degrades to a no-op, the
// same way the rest of the app tolerates a missing redis.
type Store struct {
	redis *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{redis: client}
}

func (s *Store) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if s.redis == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, revokedKey(jti), "1", ttl).Err()
}

func (s *Store) IsRevoked(ctx context.Context, jti string) bool {
	if s.redis == nil || jti == "" {
		return false
	}
	n, err := s.redis.Exists(ctx, revokedKey(jti)).Result()
	return err == nil && n > 0
}

func (s *Store) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	if s.redis == nil {
		return nil
	}
	if blocked {
		return s.redis.Set(ctx, blockedKey(userID), "1", 0).Err()
	}
	return s.redis.Del(ctx, blockedKey(userID)).Err()
}

func (s *Store) IsBlocked(ctx context.Context, userID string) bool {
	if s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, blockedKey(userID)).Result()
	return err == nil && n > 0
}

func revokedKey(jti string) string { return "session:revoked:" + jti }

func blockedKey(userID string) string { return "session:blocked:" + userID }
