package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisStore shares oracle results between machines mining the same
// repository.
type RedisStore struct {
	client *redis.Client
	logger logrus.FieldLogger
	prefix string
	ttl    time.Duration // zero keeps entries forever
}

// RedisOptions configures the redis backend
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisStore connects and verifies connectivity
func NewRedisStore(ctx context.Context, opts RedisOptions, logger logrus.FieldLogger) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address missing")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.Prefix == "" {
		opts.Prefix = "ptmine"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password, // Empty string if no password
		DB:       opts.DB,
	})

	// Fail fast on startup
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	logger = logger.WithField("component", "redis")
	logger.WithField("addr", opts.Addr).Debug("redis cache connected")

	return &RedisStore{
		client: client,
		logger: logger,
		prefix: opts.Prefix,
		ttl:    opts.TTL,
	}, nil
}

// Get retrieves a cached value. A miss is not an error.
func (s *RedisStore) Get(ctx context.Context, bucket, key string) ([]byte, bool, error) {
	k := s.redisKey(bucket, key)
	val, err := s.client.Get(ctx, k).Bytes()
	if err == redis.Nil {
		s.logger.WithField("key", k).Debug("cache miss")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed for key %s: %w", k, err)
	}
	return val, true, nil
}

// Put stores a value with the configured TTL
func (s *RedisStore) Put(ctx context.Context, bucket, key string, value []byte) error {
	k := s.redisKey(bucket, key)
	if err := s.client.Set(ctx, k, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed for key %s: %w", k, err)
	}
	return nil
}

// Close closes the Redis client connection
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

// redisKey generates a namespaced key, e.g. "ptmine:edit_scripts:<sha256>"
func (s *RedisStore) redisKey(bucket, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, bucket, key)
}
