package middleware

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"assesshub/config"
)

// PublicRateLimiter throttles the unauthenticated endpoints (lead
// capture, invitation lookup) per client IP and path.
func PublicRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.AppConfig.RateLimitPublic,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "rl:" + c.IP() + ":" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please wait before trying again.",
				"retry_after": "1 minute",
			})
		},
		Storage: createRateLimitStorage(),
	})
}

// createRateLimitStorage backs the limiter with Redis when available
// so limits hold across instances; nil falls back to fiber's
// in-memory storage.
func createRateLimitStorage() fiber.Storage {
	if config.AppConfig.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(config.AppConfig.RedisURL)
	if err != nil {
		return nil
	}
	return &RedisStorage{client: redis.NewClient(opts)}
}

// RedisStorage implements fiber.Storage for Redis.
type RedisStorage struct {
	client *redis.Client
}

func (r *RedisStorage) Get(key string) ([]byte, error) {
	val, err := r.client.Get(context.Background(), key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

func (r *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	return r.client.Set(context.Background(), key, val, exp).Err()
}

func (r *RedisStorage) Delete(key string) error {
	return r.client.Del(context.Background(), key).Err()
}

func (r *RedisStorage) Reset() error {
	return r.client.FlushDB(context.Background()).Err()
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
