package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig represents Redis Streams configuration
type RedisConfig struct {
	URL      string // Redis URL (e.g., redis://localhost:6379)
	Password string // Optional password
	DB       int    // Database number (default: 0)
	Stream   string // Stream prefix (default: "nodeplane")
}

// RedisBus implements Publisher using Redis Streams
type RedisBus struct {
	client *redis.Client
	config RedisConfig
}

// newRedisBus connects to Redis and verifies the connection
func newRedisBus(cfg RedisConfig) (*RedisBus, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		// Fallback to simple options
		opts = &redis.Options{
			Addr:     cfg.URL,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if cfg.Stream == "" {
		cfg.Stream = "nodeplane"
	}

	return &RedisBus{client: client, config: cfg}, nil
}

// streamName converts a subject to a Redis stream name
func (b *RedisBus) streamName(subject string) string {
	return fmt.Sprintf("%s:%s", b.config.Stream, subject)
}

// Publish appends a message to the subject's Redis stream
func (b *RedisBus) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.streamName(subject),
		ID:     "*",
		Values: map[string]interface{}{
			"data": data,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", b.streamName(subject), err)
	}
	return nil
}

// Close closes the Redis connection
func (b *RedisBus) Close() error {
	return b.client.Close()
}
