package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"UCLA-Rocket-Project/MTP40/internal/config"
)

const REDIS_PING_TIMEOUT = 5 * time.Second

// the subset of *redis.Client used here
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisSink keeps the latest reading under a key and announces each one on a channel.
type RedisSink struct {
	client  redisClient
	key     string
	channel string
}

func NewRedisSink(cfg config.RedisConfig) (*RedisSink, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), REDIS_PING_TIMEOUT)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newRedisSink(rdb, cfg.Key, cfg.Channel), nil
}

func newRedisSink(client redisClient, key, channel string) *RedisSink {
	return &RedisSink{client: client, key: key, channel: channel}
}

func (s *RedisSink) Name() string {
	return "redis"
}

func (s *RedisSink) Publish(ctx context.Context, reading Reading) error {
	payload, err := reading.Marshal()
	if err != nil {
		return err
	}

	if s.key != "" {
		if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
			return fmt.Errorf("set %s: %w", s.key, err)
		}
	}
	if s.channel != "" {
		if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
			return fmt.Errorf("publish %s: %w", s.channel, err)
		}
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
