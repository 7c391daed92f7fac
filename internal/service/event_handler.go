package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/cache"
	"github.com/example/xiaoyuanbao/internal/datamodels/order"
)

// ErrMalformedEvent 消息体无法解析，重试也不会成功
var ErrMalformedEvent = errors.New("malformed order event")

// OrderEventHandler worker 侧的订单事件处理：刷新物品缓存
type OrderEventHandler struct {
	cache   *cache.Cache
	monitor *Monitor
	log     *zap.Logger
}

func NewOrderEventHandler(c *cache.Cache, m *Monitor, log *zap.Logger) *OrderEventHandler {
	if m == nil {
		m = GetMonitor()
	}
	if log == nil {
		log = zap.L()
	}
	return &OrderEventHandler{cache: c, monitor: m, log: log}
}

// Handle 返回 ErrMalformedEvent 时应丢弃消息，其他错误应重新入队
func (h *OrderEventHandler) Handle(ctx context.Context, body []byte) error {
	var e order.Event
	if err := json.Unmarshal(body, &e); err != nil {
		h.monitor.RecordEvent("dropped")
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if e.ItemID == "" || e.OrderID == "" {
		h.monitor.RecordEvent("dropped")
		return fmt.Errorf("%w: missing order or item id", ErrMalformedEvent)
	}

	if err := h.cache.Invalidate(ctx, cache.ItemKey(e.ItemID)); err != nil {
		h.monitor.RecordEvent("requeued")
		return err
	}

	h.log.Info("order event handled",
		zap.String("event_id", e.ID),
		zap.String("type", string(e.Type)),
		zap.String("order_id", e.OrderID),
		zap.String("to", string(e.To)))
	h.monitor.RecordEvent("ok")
	return nil
}
