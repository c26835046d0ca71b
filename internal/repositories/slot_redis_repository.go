package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisSlot stores the slot under a namespaced key in Redis.
type RedisSlot struct {
	client *redis.Client
	key    string
}

// NewRedisSlot creates a slot stored at "<namespace>:<name>".
func NewRedisSlot(client *redis.Client, namespace, name string) *RedisSlot {
	key := name
	if namespace != "" {
		key = namespace + ":" + name
	}
	return &RedisSlot{client: client, key: key}
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Load reads the slot; a missing key is not an error.
func (s *RedisSlot) Load(ctx context.Context) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load slot %s: %w", s.key, err)
	}
	return value, true, nil
}

// Save writes the slot without expiry.
func (s *RedisSlot) Save(ctx context.Context, value string) error {
	if err := s.client.Set(ctx, s.key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to save slot %s: %w", s.key, err)
	}
	return nil
}
