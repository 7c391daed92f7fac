package mysql

import (
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/xiaoyuanbao/internal/config"
	"github.com/example/xiaoyuanbao/internal/datamodels/category"
	"github.com/example/xiaoyuanbao/internal/datamodels/item"
	"github.com/example/xiaoyuanbao/internal/datamodels/message"
	"github.com/example/xiaoyuanbao/internal/datamodels/order"
	"github.com/example/xiaoyuanbao/internal/datamodels/user"
)

var (
	db   *gorm.DB
	once sync.Once
)

// GormConfig 统一的 gorm 配置：单条写不额外包事务，唯一键冲突翻译为 gorm.ErrDuplicatedKey
func GormConfig() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Warn),
	}
}

// Init 初始化全局 GORM 实例并自动迁移表结构
func Init(cfg *config.MySQLConfig) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = gorm.Open(mysql.Open(cfg.DSN), GormConfig())
		if err != nil {
			zap.L().Fatal("failed to connect mysql", zap.Error(err))
		}

		sqlDB, err := db.DB()
		if err != nil {
			zap.L().Fatal("failed to get sql.DB", zap.Error(err))
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

		if err = AutoMigrate(db); err != nil {
			zap.L().Fatal("auto migrate failed", zap.Error(err))
		}
	})
	return db
}

// AutoMigrate 迁移全部表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.School{},
		&user.User{},
		&category.Category{},
		&item.Item{},
		&order.Order{},
		&message.Message{},
	)
}
