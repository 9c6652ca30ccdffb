package generation

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cache stores catalog listings (models, presets) between calls.
// *cache.Manager implements it. Errors are treated as misses.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// WithCache 缓存模型列表与预设列表，ttl 为 0 时由 Cache 决定过期时间.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// cacheKey 按后端地址区分缓存键
func (c *Client) cacheKey(parts ...string) string {
	key := c.baseURL
	for _, p := range parts {
		key += "|" + p
	}
	return key
}

// cachedList 先读缓存，未命中时调用 fetch 并回填
func cachedList[T any](ctx context.Context, c *Client, key string, fetch func() ([]T, error)) ([]T, error) {
	if c.cache == nil {
		return fetch()
	}

	var hit []T
	if err := c.cache.GetJSON(ctx, key, &hit); err == nil {
		c.logger.Debug("catalog cache hit", zap.String("key", key))
		return hit, nil
	}

	items, err := fetch()
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetJSON(ctx, key, items, c.cacheTTL); err != nil {
		c.logger.Warn("catalog cache store failed", zap.String("key", key), zap.Error(err))
	}
	return items, nil
}

// invalidate 删除缓存键，失败只记录日志
func (c *Client) invalidate(ctx context.Context, keys ...string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.logger.Warn("catalog cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
