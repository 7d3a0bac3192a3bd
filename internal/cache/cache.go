package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chxdon9587/NextForD/internal/config"
	"github.com/redis/go-redis/v9"
)

// ProjectCache 项目详情页缓存
type ProjectCache interface {
	// Get 命中时把缓存内容解码到 dst 并返回 true
	Get(ctx context.Context, slug string, dst interface{}) (bool, error)
	Set(ctx context.Context, slug string, value interface{}) error
	Invalidate(ctx context.Context, slug string) error
}

func pageKey(slug string) string {
	return fmt.Sprintf("project:page:%s", slug)
}

// RedisCache 基于 redis 的页面缓存
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, slug string, dst interface{}) (bool, error) {
	raw, err := c.rdb.Get(ctx, pageKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// 旧格式的缓存直接丢掉
		_ = c.rdb.Del(ctx, pageKey(slug)).Err()
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, slug string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, pageKey(slug), raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, slug string) error {
	if slug == "" {
		return nil
	}
	return c.rdb.Del(ctx, pageKey(slug)).Err()
}

// Nop 未配置 redis 时使用，从不命中
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, interface{}) error         { return nil }
func (Nop) Invalidate(context.Context, string) error                { return nil }
