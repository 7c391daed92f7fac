// Package cache 读穿缓存。缓存只是加速层：任何缓存故障都退化为直接读库。
package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const (
	// CategoryListKey 分类列表
	CategoryListKey = "category:list"
	itemKeyPrefix   = "item:"
)

// ItemKey 物品详情缓存 key
func ItemKey(id string) string {
	return itemKeyPrefix + id
}

// Store 底层 KV 存储，未命中时 ok=false 且 err=nil
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Recorder 命中率统计
type Recorder interface {
	RecordCache(hit bool)
	RecordInfraError(component string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCache(bool) {}
func (nopRecorder) RecordInfraError(string) {}

type Cache struct {
	store Store
	log   *zap.Logger
	rec   Recorder
}

func New(store Store, log *zap.Logger, rec Recorder) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Cache{store: store, log: log, rec: rec}
}

// Invalidate 删除 key，失败只记录日志并返回错误，由调用方决定是否重试
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		c.rec.RecordInfraError("cache")
		c.log.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

// GetOrSet 先读缓存，未命中或缓存不可用时调用 load 并回填
func GetOrSet[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	raw, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		c.rec.RecordInfraError("cache")
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	case ok:
		var v T
		if jerr := json.Unmarshal(raw, &v); jerr == nil {
			c.rec.RecordCache(true)
			return v, nil
		}
		// 数据损坏，删掉后回源
		c.log.Warn("cache entry corrupt", zap.String("key", key))
		_ = c.store.Del(ctx, key)
	}
	c.rec.RecordCache(false)

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	body, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return v, nil
	}
	if err := c.store.Set(ctx, key, body, ttl); err != nil {
		c.rec.RecordInfraError("cache")
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}
