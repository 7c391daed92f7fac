package service

import (
	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/cache"
	"github.com/example/xiaoyuanbao/internal/config"
	"github.com/example/xiaoyuanbao/internal/datamodels/category"
	"github.com/example/xiaoyuanbao/internal/datamodels/item"
	"github.com/example/xiaoyuanbao/internal/datamodels/message"
	"github.com/example/xiaoyuanbao/internal/datamodels/order"
	"github.com/example/xiaoyuanbao/internal/datamodels/user"
	"github.com/example/xiaoyuanbao/internal/repository"
)

// Deps 各服务共用的依赖
type Deps struct {
	Users      user.Repository
	Categories category.Repository
	Items      item.Repository
	Orders     order.Repository
	Messages   message.Repository
	Tx         repository.Transactor

	Cache    *cache.Cache
	CacheTTL config.CacheConfig
	Events   EventPublisher
	Monitor  *Monitor
	Log      *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = zap.L()
	}
	if d.Monitor == nil {
		d.Monitor = GetMonitor()
	}
	if d.Cache == nil {
		d.Cache = cache.New(cache.NewMemoryStore(), d.Log, d.Monitor)
	}
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
	def := config.DefaultConfig().Cache
	if d.CacheTTL.CategoryTTL <= 0 {
		d.CacheTTL.CategoryTTL = def.CategoryTTL
	}
	if d.CacheTTL.ItemTTL <= 0 {
		d.CacheTTL.ItemTTL = def.ItemTTL
	}
	return d
}

// internal 记录并包装基础设施错误
func (d Deps) internal(op string, err error) *AppError {
	d.Monitor.RecordInfraError("db")
	d.Log.Error(op+" failed", zap.Error(err))
	return Internal(err)
}
