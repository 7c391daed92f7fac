package order

import "time"

// EventType 订单事件类型
type EventType string

const (
	EventCreated       EventType = "created"
	EventStatusChanged EventType = "status_changed"
)

// Event 订单提交后对外发布的事件，消费方据此刷新物品缓存与统计
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	OrderID    string    `json:"orderId"`
	OrderNo    string    `json:"orderNo"`
	ItemID     string    `json:"itemId"`
	BuyerID    string    `json:"buyerId"`
	SellerID   string    `json:"sellerId"`
	Action     Action    `json:"action,omitempty"`
	From       Status    `json:"from,omitempty"`
	To         Status    `json:"to"`
	OccurredAt time.Time `json:"occurredAt"`
}

// RoutingKey order.created / order.status.<to>
func (e Event) RoutingKey() string {
	if e.Type == EventCreated {
		return "order.created"
	}
	return "order.status." + string(e.To)
}
