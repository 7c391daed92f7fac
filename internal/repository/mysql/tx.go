package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/xiaoyuanbao/internal/datamodels/item"
	"github.com/example/xiaoyuanbao/internal/datamodels/order"
	"github.com/example/xiaoyuanbao/internal/repository"
)

type transactor struct {
	db *gorm.DB
}

// NewTransactor 基于 gorm 事务的 Transactor
func NewTransactor(db *gorm.DB) repository.Transactor {
	return &transactor{db: db}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txRepos{db: tx})
	})
}

type txRepos struct {
	db *gorm.DB
}

func (r txRepos) Items() item.Repository { return &itemRepo{db: r.db} }
func (r txRepos) Orders() order.Repository { return &orderRepo{db: r.db} }
