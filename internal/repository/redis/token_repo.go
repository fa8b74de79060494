package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

const UserTokenPrefix = "login:user:token"

// TokenRepository keeps the one live access token of each user.
type TokenRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTokenRepository(rdb *redis.Client, ttl time.Duration) *TokenRepository {
	return &TokenRepository{rdb: rdb, ttl: ttl}
}

func tokenKey(userID string) string {
	return fmt.Sprintf("%s:%s", UserTokenPrefix, userID)
}

// Add replaces any earlier session of userID.
func (r *TokenRepository) Add(ctx context.Context, userID, token string) error {
	if err := r.rdb.Set(ctx, tokenKey(userID), token, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *TokenRepository) Get(ctx context.Context, userID string) (string, error) {
	token, err := r.rdb.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return token, nil
}

func (r *TokenRepository) Delete(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, tokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
