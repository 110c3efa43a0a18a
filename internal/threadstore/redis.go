package threadstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avelichko/docsbot/pkg/logging"
)

const keyPrefix = "thread:"

// Redis stores thread mappings durably. Entries never expire: a user's
// conversation thread is reused for as long as the provider keeps it.
type Redis struct {
	client *redis.Client
	logger *logging.Logger
}

// NewRedis connects and pings the server; an unreachable Redis is a
// startup failure rather than a silent in-memory fallback.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}

	return NewRedisFromClient(client), nil
}

// NewRedisFromClient wraps an existing client; used by tests.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{
		client: client,
		logger: logging.NewLogger("threadstore"),
	}
}

func (s *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	threadID, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get thread mapping for %s: %w", key, err)
	}
	return threadID, true, nil
}

func (s *Redis) Set(ctx context.Context, key, threadID string) error {
	if err := s.client.Set(ctx, keyPrefix+key, threadID, 0).Err(); err != nil {
		return fmt.Errorf("set thread mapping for %s: %w", key, err)
	}
	s.logger.Debug("thread mapping saved", "user_key", key, "thread_id", threadID)
	return nil
}

func (s *Redis) Close() error {
	return s.client.Close()
}
