package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
)

// RateLimit creates a fixed-window rate limiter keyed by user (falling back
// to client IP). With a Redis client the window counters are shared across
// API instances; without one the limiter stays node-local.
func RateLimit(identifier string, max int, window time.Duration, cache *redis.Client) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	cfg := limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			userID := fmt.Sprintf("%v", c.Locals("user_id"))
			if userID == "" || userID == "<nil>" {
				userID = c.IP()
			}
			return fmt.Sprintf("%s:%s", identifier, userID)
		},
	}
	if cache != nil {
		cfg.Storage = &redisStorage{client: cache}
	}

	return limiter.New(cfg)
}

// redisStorage adapts a go-redis client to the fiber.Storage interface the
// limiter persists its window counters through.
type redisStorage struct {
	client *redis.Client
}

func (s *redisStorage) Get(key string) ([]byte, error) {
	value, err := s.client.Get(context.Background(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return value, err
}

func (s *redisStorage) Set(key string, value []byte, expiration time.Duration) error {
	return s.client.Set(context.Background(), key, value, expiration).Err()
}

func (s *redisStorage) Delete(key string) error {
	return s.client.Del(context.Background(), key).Err()
}

func (s *redisStorage) Reset() error {
	return s.client.FlushDB(context.Background()).Err()
}

func (s *redisStorage) Close() error {
	return nil
}
