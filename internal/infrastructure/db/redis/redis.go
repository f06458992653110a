package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout = 5 * time.Second

	// DefaultTokenKey is used when Config.Key is empty.
	DefaultTokenKey = "cabinet:session:token"
)

// Config describes where the session token lives in Redis.
type Config struct {
	Addr string
	DB   int
	// Key holds the token; TTL is applied on every Set. A zero TTL keeps
	// the key without expiry.
	Key     string
	TTL     time.Duration
	Timeout time.Duration
}

// Open connects to Redis, pings it and returns a TokenStore bound to
// cfg.Key. The caller owns the store and must Close it.
func Open(ctx context.Context, cfg Config) (*TokenStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	key := cfg.Key
	if key == "" {
		key = DefaultTokenKey
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis token store %s/%d unreachable: %w", cfg.Addr, cfg.DB, err)
	}

	return NewTokenStore(client, key, cfg.TTL), nil
}
