package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCache is the hot tier for interview sessions. It is best-effort:
// callers treat every error like a miss.
type SessionCache interface {
	SetSession(ctx context.Context, id string, blob []byte, ttl time.Duration) error
	// GetSession returns nil, nil on a miss.
	GetSession(ctx context.Context, id string) ([]byte, error)
	DeleteSession(ctx context.Context, id string) error
}

type redisSessionCache struct {
	client *redis.Client
}

func NewRedisSessionCache(client *redis.Client) SessionCache {
	return &redisSessionCache{client: client}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (r *redisSessionCache) SetSession(ctx context.Context, id string, blob []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, sessionKey(id), blob, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}
	return nil
}

func (r *redisSessionCache) GetSession(ctx context.Context, id string) ([]byte, error) {
	blob, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached session: %w", err)
	}
	return blob, nil
}

func (r *redisSessionCache) DeleteSession(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to evict session: %w", err)
	}
	return nil
}
