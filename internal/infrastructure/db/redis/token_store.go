package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sdm/cabinet-client/internal/core/ports"
)

// TokenStore keeps the session token under a single Redis key. The key
// expires after ttl so an abandoned session does not linger; the backend
// remains the authority on token expiry.
type TokenStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

var _ ports.TokenStore = (*TokenStore)(nil)

// NewTokenStore creates a TokenStore. A zero ttl keeps the key without expiry.
func NewTokenStore(client *redis.Client, key string, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, key: key, ttl: ttl}
}

func (s *TokenStore) Get(ctx context.Context) (string, error) {
	tok, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("token get: %w", err)
	}
	return tok, nil
}

func (s *TokenStore) Set(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, s.ttl).Err(); err != nil {
		return fmt.Errorf("token set: %w", err)
	}
	return nil
}

func (s *TokenStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("token delete: %w", err)
	}
	return nil
}

// Client exposes the underlying connection for health checks.
func (s *TokenStore) Client() *redis.Client { return s.client }

func (s *TokenStore) Close() error { return s.client.Close() }
