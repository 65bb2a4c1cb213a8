package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/parla/backend/internal/model/persona"
)

const keyPrefix = "parla:mode:"

// redisClient 是 RedisStore 用到的最小命令集合，*redis.Client 满足该接口。
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore 让多个副本共享同一份模式数据。键不过期。
type RedisStore struct {
	rdb redisClient
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb redisClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Dial 解析 redis URL、建立连接并 Ping 校验。
func Dial(ctx context.Context, redisURL string) (*RedisStore, *redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid SESSION_REDIS_URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStore(rdb), rdb, nil
}

func modeKey(sender string) string {
	return keyPrefix + sender
}

// Get returns the stored mode; a missing key is reported as absent.
func (s *RedisStore) Get(ctx context.Context, sender string) (persona.Mode, bool, error) {
	val, err := s.rdb.Get(ctx, modeKey(sender)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load mode: %w", err)
	}

	mode := persona.Mode(val)
	if !mode.Valid() {
		return "", false, fmt.Errorf("unknown stored mode %q", val)
	}
	return mode, true, nil
}

// Set stores mode without expiry.
func (s *RedisStore) Set(ctx context.Context, sender string, mode persona.Mode) error {
	if err := s.rdb.Set(ctx, modeKey(sender), string(mode), 0).Err(); err != nil {
		return fmt.Errorf("failed to save mode: %w", err)
	}
	return nil
}
