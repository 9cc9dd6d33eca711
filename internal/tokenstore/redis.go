package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/pakbooking/pkg/config"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares one credential pair between several client processes
// (for example a CLI and a background notifier on the same host).
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "pakbooking"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// NewRedisStoreFromConfig connects and pings with a short timeout so a
// misconfigured backend fails at startup rather than on the first request.
func NewRedisStoreFromConfig(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStore(rdb, cfg.KeyPrefix), nil
}

func (r *RedisStore) key(name string) string {
	return r.prefix + ":" + name
}

func (r *RedisStore) Get(ctx context.Context, name string) (string, bool, error) {
	if err := checkName(name); err != nil {
		return "", false, err
	}
	v, err := r.rdb.Get(ctx, r.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

func (r *RedisStore) Set(ctx context.Context, name, value string) error {
	if err := checkName(name); err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key(name), value, 0).Err()
}

func (r *RedisStore) SetPair(ctx context.Context, p Pair) error {
	return r.rdb.MSet(ctx, r.key(AccessToken), p.Access, r.key(RefreshToken), p.Refresh).Err()
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key(AccessToken), r.key(RefreshToken)).Err()
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
