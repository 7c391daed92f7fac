package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/cache"
	"github.com/example/xiaoyuanbao/internal/datamodels/item"
	"github.com/example/xiaoyuanbao/internal/datamodels/order"
	"github.com/example/xiaoyuanbao/internal/datamodels/user"
	"github.com/example/xiaoyuanbao/internal/idgen"
	"github.com/example/xiaoyuanbao/internal/repository"
)

// 订单号冲突时的最大尝试次数
const maxOrderNoAttempts = 3

// OrderService 下单与订单状态流转
type OrderService struct {
	Deps
	now func() time.Time
}

func NewOrderService(d Deps) *OrderService {
	return &OrderService{Deps: d.withDefaults(), now: time.Now}
}

// CreateOrderInput 下单参数
type CreateOrderInput struct {
	ItemID       string
	DeliveryType order.DeliveryType
	Address      string
	ContactPhone string
	Remark       string
}

// generateOrderNo ORD + 时间戳 + 4 位随机数
func generateOrderNo(now time.Time) string {
	return fmt.Sprintf("ORD%s%04d", now.Format("20060102150405"), rand.Intn(10000))
}

// Create 下单：物品状态从权威存储读取，抢占与写订单在同一事务内完成
func (s *OrderService) Create(ctx context.Context, buyerID string, in CreateOrderInput) (*order.Order, error) {
	if _, err := s.Users.GetByID(ctx, buyerID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, Unauthorized("用户不存在")
		}
		return nil, s.internal("load buyer", err)
	}

	it, err := s.Items.GetByID(ctx, in.ItemID)
	if err != nil {
		if errors.Is(err, item.ErrNotFound) {
			return nil, NotFound("物品不存在")
		}
		return nil, s.internal("load item", err)
	}
	if it.SellerID == buyerID {
		return nil, BadRequest(CodeSelfTrade, "不能购买自己发布的物品")
	}
	if it.Status != item.StatusAvailable {
		return nil, BadRequest(CodeItemUnavailable, "物品已售出或已下架")
	}

	typ := order.TypePurchase
	if it.Type == item.TypeRent {
		typ = order.TypeRent
	}

	var o *order.Order
	for attempt := 1; ; attempt++ {
		o = &order.Order{
			ID:           idgen.New(),
			OrderNo:      generateOrderNo(s.now()),
			ItemID:       it.ID,
			BuyerID:      buyerID,
			SellerID:     it.SellerID,
			Type:         typ,
			Amount:       it.Price,
			Status:       order.StatusPending,
			DeliveryType: in.DeliveryType,
			Address:      in.Address,
			ContactPhone: in.ContactPhone,
			Remark:       in.Remark,
		}
		err = s.Tx.WithinTx(ctx, func(tx repository.Tx) error {
			if err := tx.Items().ClaimAvailable(ctx, it.ID); err != nil {
				return err
			}
			return tx.Orders().Create(ctx, o)
		})
		if errors.Is(err, order.ErrDuplicateOrderNo) && attempt < maxOrderNoAttempts {
			continue
		}
		break
	}

	switch {
	case err == nil:
	case errors.Is(err, item.ErrUnavailable):
		s.Log.Debug("item claimed concurrently", zap.String("item_id", it.ID), zap.String("buyer_id", buyerID))
		return nil, BadRequest(CodeItemUnavailable, "物品已售出或已下架")
	default:
		return nil, s.internal("create order", err)
	}

	s.Monitor.RecordOrderCreated()
	s.afterCommit(ctx, order.Event{
		Type: order.EventCreated,
		To:   order.StatusPending,
	}, o)
	return o, nil
}

var forbiddenMessages = map[order.Action]string{
	order.ActionPay:     "只有买家可以付款",
	order.ActionShip:    "只有卖家可以发货",
	order.ActionConfirm: "只有买家可以确认收货",
	order.ActionCancel:  "当前状态下无权取消订单",
}

// Apply 执行订单操作。订单行加锁读取，状态按原值条件更新，取消时同一事务释放物品
func (s *OrderService) Apply(ctx context.Context, userID, orderID string, action order.Action) (*order.Order, error) {
	var (
		updated *order.Order
		from    order.Status
	)
	err := s.Tx.WithinTx(ctx, func(tx repository.Tx) error {
		o, err := tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		isBuyer, isSeller := o.BuyerID == userID, o.SellerID == userID
		if !isBuyer && !isSeller {
			return Forbidden("无权操作此订单")
		}

		next, err := order.Transition(o.Status, action, isBuyer, isSeller)
		if err != nil {
			return err
		}

		var payTime *time.Time
		if action == order.ActionPay {
			t := s.now()
			payTime = &t
		}
		if err := tx.Orders().UpdateStatus(ctx, o.ID, o.Status, next, payTime); err != nil {
			return err
		}
		if next == order.StatusCancelled {
			if err := tx.Items().Release(ctx, o.ItemID); err != nil {
				return err
			}
		}

		from = o.Status
		o.Status = next
		if payTime != nil {
			o.PayTime = payTime
		}
		updated = o
		return nil
	})
	if err != nil {
		appErr := s.transitionError(action, err)
		s.Monitor.RecordTransition(string(action), appErr.Code)
		return nil, appErr
	}

	s.Monitor.RecordTransition(string(action), "ok")
	s.afterCommit(ctx, order.Event{
		Type:   order.EventStatusChanged,
		Action: action,
		From:   from,
		To:     updated.Status,
	}, updated)
	return updated, nil
}

func (s *OrderService) transitionError(action order.Action, err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, order.ErrNotFound):
		return NotFound("订单不存在")
	case errors.Is(err, order.ErrForbidden):
		msg, ok := forbiddenMessages[action]
		if !ok {
			msg = "无权操作此订单"
		}
		return Forbidden(msg)
	case errors.Is(err, order.ErrInvalidTransition):
		return BadRequest(CodeInvalidTransition, fmt.Sprintf("订单当前状态不允许执行 %s", action))
	case errors.Is(err, order.ErrUnknownAction):
		return Validation("未知的订单操作")
	case errors.Is(err, order.ErrStatusConflict):
		return Conflict("订单状态已变化，请刷新后重试")
	default:
		return s.internal("apply order action", err)
	}
}

// afterCommit 提交后的收尾：失效物品缓存、发布事件。失败只记录，不影响结果
func (s *OrderService) afterCommit(ctx context.Context, e order.Event, o *order.Order) {
	_ = s.Cache.Invalidate(ctx, cache.ItemKey(o.ItemID))

	e.ID = idgen.New()
	e.OrderID = o.ID
	e.OrderNo = o.OrderNo
	e.ItemID = o.ItemID
	e.BuyerID = o.BuyerID
	e.SellerID = o.SellerID
	e.OccurredAt = s.now()
	if err := s.Events.PublishOrderEvent(ctx, e); err != nil {
		s.Monitor.RecordInfraError("mq")
		s.Log.Error("publish order event failed",
			zap.String("order_id", o.ID),
			zap.String("routing_key", e.RoutingKey()),
			zap.Error(err))
	}
}

// Get 订单详情，仅买卖双方可见
func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*order.Order, error) {
	o, err := s.Orders.GetDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, NotFound("订单不存在")
		}
		return nil, s.internal("get order", err)
	}
	if o.BuyerID != userID && o.SellerID != userID {
		return nil, Forbidden("无权查看此订单")
	}
	return o, nil
}

// List role 为空时按买家视角；status 为空或 all 表示不过滤
func (s *OrderService) List(ctx context.Context, userID string, role order.Role, status string) ([]*order.Order, error) {
	switch role {
	case "":
		role = order.RoleBuyer
	case order.RoleBuyer, order.RoleSeller:
	default:
		return nil, Validation("type 只能是 buy 或 sell")
	}

	f := order.ListFilter{UserID: userID, Role: role}
	if status != "" && status != "all" {
		st := order.Status(status)
		if !st.Valid() {
			return nil, Validation("无效的订单状态")
		}
		f.Status = st
	}

	list, err := s.Orders.List(ctx, f)
	if err != nil {
		return nil, s.internal("list orders", err)
	}
	return list, nil
}
