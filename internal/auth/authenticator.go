package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/config"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Authenticator 解析 Authorization 头，优先走 token 缓存
type Authenticator struct {
	cfg   *config.JWTConfig
	cache *TokenCache
	log   *zap.Logger
}

func NewAuthenticator(cfg *config.JWTConfig, cache *TokenCache, log *zap.Logger) *Authenticator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{cfg: cfg, cache: cache, log: log}
}

// Authenticate 返回调用方用户 ID
func (a *Authenticator) Authenticate(ctx context.Context, header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return "", ErrMissingToken
	}

	if claims, hit, err := a.cache.Get(ctx, token); err != nil {
		a.log.Warn("token cache get failed", zap.Error(err))
	} else if hit {
		return claims.UserID, nil
	}

	claims, err := ParseToken(a.cfg, token)
	if err != nil {
		return "", ErrInvalidToken
	}
	if err := a.cache.Set(ctx, token, claims); err != nil {
		a.log.Warn("token cache set failed", zap.Error(err))
	}
	return claims.UserID, nil
}
