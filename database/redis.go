package database

import (
	"context"
	"fmt"

	"envnotify/logger"

	"github.com/go-redis/redis/v8"
)

// RedisConfig selects the redis server and the namespace keys are stored under.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore keeps values as plain redis strings named KeyPrefix+key.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to cfg.Addr and verifies the connection with PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		logger.Error("Failed to connect to redis at %s: %v", cfg.Addr, err)
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	logger.Info("Connected to redis at %s (db %d, prefix %q)", cfg.Addr, cfg.DB, cfg.KeyPrefix)
	return NewRedisStore(client, cfg.KeyPrefix), nil
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = r.prefix + k
	}

	vals, err := r.client.MGet(ctx, names...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis MGET %v: %w", names, err)
	}
	for i, v := range vals {
		switch s := v.(type) {
		case nil:
		case string:
			out[keys[i]] = []byte(s)
		default:
			return nil, fmt.Errorf("redis MGET %s: unexpected value type %T", names[i], v)
		}
	}
	return out, nil
}

// Set writes every value with a single MSET, which redis applies atomically.
func (r *RedisStore) Set(ctx context.Context, values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}
	pairs := make(map[string]interface{}, len(values))
	for k, v := range values {
		pairs[r.prefix+k] = string(v)
	}
	if err := r.client.MSet(ctx, pairs).Err(); err != nil {
		return fmt.Errorf("redis MSET: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
