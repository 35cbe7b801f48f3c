package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores values as plain redis strings
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV connects to url; a bare host:port is accepted too
func NewRedisKV(ctx context.Context, url string) (*RedisKV, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisKV{client: client}, nil
}

// Get reads the value of key
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrNotFound
	case errors.Is(err, redis.ErrClosed):
		return nil, ErrClosed
	case err != nil:
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return value, nil
}

// Put replaces the value of key without expiry
func (r *RedisKV) Put(ctx context.Context, key string, value []byte) error {
	err := r.client.Set(ctx, key, value, 0).Err()
	if errors.Is(err, redis.ErrClosed) {
		return ErrClosed
	}
	if err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Close closes the client
func (r *RedisKV) Close() error {
	return r.client.Close()
}
