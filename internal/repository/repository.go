package repository

import (
	"context"

	"github.com/example/xiaoyuanbao/internal/datamodels/item"
	"github.com/example/xiaoyuanbao/internal/datamodels/order"
)

// Tx 事务内可见的仓储，所有写入随事务一起提交或回滚
type Tx interface {
	Items() item.Repository
	Orders() order.Repository
}

// Transactor 开启事务执行 fn；fn 返回错误时整体回滚
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
