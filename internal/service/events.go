package service

import (
	"context"

	"github.com/example/xiaoyuanbao/internal/datamodels/order"
)

// EventPublisher 订单事件发布，实现见 infra/mq.Publisher
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, e order.Event) error
}

type nopPublisher struct{}

func (nopPublisher) PublishOrderEvent(context.Context, order.Event) error { return nil }
