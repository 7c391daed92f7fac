package server

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/auth"
	"github.com/example/xiaoyuanbao/internal/cache"
	"github.com/example/xiaoyuanbao/internal/config"
	"github.com/example/xiaoyuanbao/internal/infra/mq"
	"github.com/example/xiaoyuanbao/internal/infra/redis"
	"github.com/example/xiaoyuanbao/internal/middleware"
	"github.com/example/xiaoyuanbao/internal/repository/memory"
	"github.com/example/xiaoyuanbao/internal/repository/mysql"
	"github.com/example/xiaoyuanbao/internal/service"
)

// Services HTTP 层用到的全部服务
type Services struct {
	Deps       service.Deps
	Catalog    *service.CatalogService
	Categories *service.CategoryService
	Orders     *service.OrderService
	Messages   *service.MessageService
	Auth       *auth.Authenticator
	Limiter    *middleware.RateLimiter
	Monitor    *service.Monitor
}

// NewServices 在已组装好的仓储与缓存之上构建服务
func NewServices(cfg *config.Config, deps service.Deps, kv cache.Store, log *zap.Logger) *Services {
	if deps.Monitor == nil {
		deps.Monitor = service.GetMonitor()
	}
	deps.Log = log
	deps.CacheTTL = cfg.Cache

	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokens := auth.NewTokenCache(kv, ring, time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	return &Services{
		Deps:       deps,
		Catalog:    service.NewCatalogService(deps),
		Categories: service.NewCategoryService(deps),
		Orders:     service.NewOrderService(deps),
		Messages:   service.NewMessageService(deps),
		Auth:       auth.NewAuthenticator(&cfg.JWT, tokens, log),
		Limiter:    middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log),
		Monitor:    deps.Monitor,
	}
}

// Bootstrap 按配置连接 MySQL/Redis/RabbitMQ；memory 驱动下全部使用进程内实现。
// 返回的 cleanup 负责关闭打开的连接。
func Bootstrap(cfg *config.Config, log *zap.Logger) (*Services, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	mon := service.GetMonitor()
	var kv cache.Store
	if cfg.Redis.Addr != "" {
		client := redis.Init(&cfg.Redis)
		closers = append(closers, func() { _ = client.Close() })
		kv = cache.NewRedisStore(client)
	} else {
		kv = cache.NewMemoryStore()
	}

	deps := service.Deps{
		Cache:   cache.New(kv, log, mon),
		Monitor: mon,
	}

	seed := false
	switch cfg.Store.Driver {
	case "memory":
		store := memory.New()
		deps.Users = store.Users()
		deps.Categories = store.Categories()
		deps.Items = store.Items()
		deps.Orders = store.Orders()
		deps.Messages = store.Messages()
		deps.Tx = store.Transactor()
		seed = true
	default:
		db := mysql.Init(&cfg.MySQL)
		deps.Users = mysql.NewUserRepository(db)
		deps.Categories = mysql.NewCategoryRepository(db)
		deps.Items = mysql.NewItemRepository(db)
		deps.Orders = mysql.NewOrderRepository(db)
		deps.Messages = mysql.NewMessageRepository(db)
		deps.Tx = mysql.NewTransactor(db)
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
	}

	if cfg.RabbitMQ.URL != "" {
		conn := mq.Init(&cfg.RabbitMQ)
		closers = append(closers, func() { _ = conn.Close() })
		pub, err := mq.NewPublisher(conn)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("init order event publisher: %w", err)
		}
		closers = append(closers, func() { _ = pub.Close() })
		deps.Events = pub
	}

	s := NewServices(cfg, deps, kv, log)
	if seed {
		if err := s.Categories.SeedDefaults(context.Background()); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("seed categories: %w", err)
		}
	}
	return s, cleanup, nil
}
