package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRefreshTokenUnknown signals a refresh id that is absent from the
// store, either expired, already rotated, or revoked.
var ErrRefreshTokenUnknown = errors.New("refresh token unknown or already used")

const refreshKeyPrefix = "refresh:"

// RefreshStore keeps issued refresh-token ids in Redis so tokens are
// single-use: consuming an id removes it atomically.
type RefreshStore struct {
	client *redis.Client
}

// NewRefreshStore wraps a redis client.
func NewRefreshStore(client *redis.Client) *RefreshStore {
	return &RefreshStore{client: client}
}

// Save registers a refresh id for the user with the given lifetime.
func (s *RefreshStore) Save(ctx context.Context, refreshID, userID string, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Set(ctx, refreshKeyPrefix+refreshID, userID, ttl).Err()
}

// Consume removes the refresh id and returns the user it was issued
// to. A missing key means the token was never issued, expired, or was
// already rotated.
func (s *RefreshStore) Consume(ctx context.Context, refreshID string) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrRefreshTokenUnknown
	}
	userID, err := s.client.GetDel(ctx, refreshKeyPrefix+refreshID).Result()
	if err == redis.Nil {
		return "", ErrRefreshTokenUnknown
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// Revoke is a best-effort revocation of a single refresh id.
func (s *RefreshStore) Revoke(ctx context.Context, refreshID string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Del(ctx, refreshKeyPrefix+refreshID).Err()
}
