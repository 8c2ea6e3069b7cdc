package governance

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a WindowStore shared across gateway instances. It counts
// attempts with INCR and lets the key expire after the window, so the window
// opens on the first attempt after expiry - the same reset-from-now behavior
// as the memory store. Unlike the memory store it counts rejected attempts
// too; the stored counter may exceed the limit while the window is closed.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the redis key prefix (default "siggate:window").
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// NewRedisStore creates a redis-backed window store and verifies the
// connection with a bounded ping.
func NewRedisStore(opts *redis.Options, storeOpts ...RedisOption) (*RedisStore, error) {
	if opts == nil || opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	s := &RedisStore{
		client: client,
		prefix: "siggate:window",
	}
	for _, opt := range storeOpts {
		opt(s)
	}
	return s, nil
}

// Admit implements WindowStore. INCR and EXPIRE run in one transactional
// pipeline so the first attempt both creates the counter and arms the
// window expiry.
func (s *RedisStore) Admit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := s.prefix + ":" + key

	pipe := s.client.TxPipeline()
	counter := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis window admit: %w", err)
	}

	return counter.Val() <= int64(limit), nil
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
