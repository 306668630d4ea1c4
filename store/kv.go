package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"assesshub/config"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("kv: key not found")

// KV is the ephemeral key-value namespace (lead:*, leads:daily:*,
// leads:source:*, share:*, invite:fallback:*). The contract is best
// effort: the memory implementation is process-local and lost on
// restart, which callers must tolerate.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Durable reports whether writes survive a process restart.
	// Features that only make sense against shared storage (lead
	// clearing) check this before acting.
	Durable() bool
}

// New connects to Redis when a URL is configured and reachable,
// otherwise falls back to the in-process memory store.
func New(redisURL string) KV {
	if redisURL == "" {
		logrus.Warn("kv: no redis url configured, using memory fallback")
		return NewMemoryKV()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logrus.WithField("error", err).Warn("kv: invalid redis url, using memory fallback")
		return NewMemoryKV()
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithField("error", err).Warn("kv: redis unreachable, using memory fallback")
		return NewMemoryKV()
	}

	return &RedisKV{client: client}
}

// NewFromConfig builds the KV store from the loaded application config.
func NewFromConfig() KV {
	return New(config.AppConfig.RedisURL)
}

// RedisKV backs the namespace with a shared Redis instance.
type RedisKV struct {
	client *redis.Client
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisKV) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return r.Delete(ctx, keys...)
}

func (r *RedisKV) Durable() bool { return true }

// MemoryKV is the in-process fallback used when Redis is not
// configured or unreachable.
type MemoryKV struct {
	mu      sync.RWMutex
	values  map[string]string
	expires map[string]time.Time
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
	}
}

func (m *MemoryKV) expired(key string) bool {
	exp, ok := m.expires[key]
	return ok && time.Now().After(exp)
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.values[key]
	if !ok || m.expired(key) {
		return "", ErrNotFound
	}
	return val, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	} else {
		delete(m.expires, key)
	}
	return nil
}

func (m *MemoryKV) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.expired(key) {
		delete(m.values, key)
		delete(m.expires, key)
	}

	var n int64
	if cur, ok := m.values[key]; ok {
		parsed, err := strconv.ParseInt(cur, 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	n++
	m.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.values, key)
		delete(m.expires, key)
	}
	return nil
}

func (m *MemoryKV) DeleteByPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
			delete(m.expires, key)
		}
	}
	return nil
}

func (m *MemoryKV) Durable() bool { return false }
