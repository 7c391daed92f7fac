package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/example/xiaoyuanbao/internal/service"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按身份（登录用户 ID，否则客户端 IP）分别计数的令牌桶
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	log      *zap.Logger
}

func NewRateLimiter(requestsPerSecond float64, burst int, log *zap.Logger) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		log:      log,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Allow 供非 HTTP 场景直接调用
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// Handler 需挂在 RequireAuth 之后才能按用户计
func (rl *RateLimiter) Handler() iris.Handler {
	return func(ctx iris.Context) {
		key := ctx.Values().GetString(UserIDKey)
		if key == "" {
			key = "ip:" + ctx.RemoteAddr()
		}
		if !rl.Allow(key) {
			rl.log.Info("rate limit exceeded",
				zap.String("key", key),
				zap.String("method", ctx.Method()),
				zap.String("path", ctx.Path()))
			e := service.TooManyRequests()
			abort(ctx, e.Kind.HTTPStatus(), e.Code, e.Message)
			return
		}
		ctx.Next()
	}
}

// Cleanup 清理 idle 之前未出现的身份
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-idle)
	removed := 0
	for k, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, k)
			removed++
		}
	}
	return removed
}

// StartCleanup 定期清理，ctx 结束时退出
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup(interval)
			}
		}
	}()
}

// abort 以统一响应结构结束请求
func abort(ctx iris.Context, status int, code, msg string) {
	ctx.StopWithJSON(status, iris.Map{
		"success": false,
		"error": iris.Map{
			"code":    code,
			"message": msg,
		},
	})
}
