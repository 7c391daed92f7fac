package auth

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/xiaoyuanbao/internal/cache"
)

// TokenCache 基于一致性哈希的 JWT 解析结果缓存，加速分布式鉴权
type TokenCache struct {
	store cache.Store
	ring  *ConsistentHashRing
	ttl   time.Duration
	now   func() time.Time
}

// NewTokenCache 构建缓存器，store 为 nil 时不缓存
func NewTokenCache(store cache.Store, ring *ConsistentHashRing, ttl time.Duration) *TokenCache {
	if ring == nil {
		ring = NewConsistentHashRing(nil, 0)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TokenCache{
		store: store,
		ring:  ring,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *TokenCache) cacheKey(token string) string {
	node := c.ring.GetNode(token)
	sum := sha1.Sum([]byte(token))
	return fmt.Sprintf("auth:jwt:%s:%s", node, hex.EncodeToString(sum[:]))
}

// Get 尝试命中缓存的 claims，已过期的视为未命中
func (c *TokenCache) Get(ctx context.Context, token string) (*Claims, bool, error) {
	if c == nil || c.store == nil {
		return nil, false, nil
	}
	key := c.cacheKey(token)
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		// 数据损坏，清理后走正常解析
		_ = c.store.Del(ctx, key)
		return nil, false, nil
	}
	if claims.ExpiresAt == nil || !c.now().Before(claims.ExpiresAt.Time) {
		_ = c.store.Del(ctx, key)
		return nil, false, nil
	}
	return &claims, true, nil
}

// Set 缓存解析结果，缓存时间不超过 token 剩余有效期
func (c *TokenCache) Set(ctx context.Context, token string, claims *Claims) error {
	if c == nil || c.store == nil || claims == nil {
		return nil
	}
	ttl := c.ttl
	if claims.ExpiresAt != nil {
		if left := claims.ExpiresAt.Sub(c.now()); left < ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return nil
	}
	body, err := json.Marshal(claims)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.cacheKey(token), body, ttl)
}
