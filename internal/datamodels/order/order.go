package order

import (
	"context"
	"errors"
	"time"

	"github.com/example/xiaoyuanbao/internal/datamodels/item"
	"github.com/example/xiaoyuanbao/internal/datamodels/user"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStatusConflict 条件更新时订单状态已被其他请求改变
	ErrStatusConflict = errors.New("order status changed concurrently")
	ErrDuplicateOrderNo = errors.New("duplicate order number")
)

type Type string

const (
	TypePurchase Type = "purchase"
	TypeRent     Type = "rent"
)

type DeliveryType string

const (
	DeliveryDelivery DeliveryType = "delivery"
	DeliveryPickup   DeliveryType = "pickup"
)

// Order 订单模型，一个订单只绑定一个物品
type Order struct {
	ID           string       `gorm:"primaryKey;size:26" json:"id"`
	OrderNo      string       `gorm:"size:32;uniqueIndex;not null" json:"orderNo"`
	ItemID       string       `gorm:"size:26;index;not null" json:"itemId"`
	BuyerID      string       `gorm:"size:26;index;not null" json:"buyerId"`
	SellerID     string       `gorm:"size:26;index;not null" json:"sellerId"`
	Type         Type         `gorm:"size:16;not null" json:"type"`
	Amount       float64      `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status       Status       `gorm:"size:16;index;not null" json:"status"`
	PayTime      *time.Time   `json:"payTime,omitempty"`
	DeliveryType DeliveryType `gorm:"size:16;not null" json:"deliveryType"`
	Address      string       `gorm:"size:255" json:"address,omitempty"`
	ContactPhone string       `gorm:"size:32;not null" json:"contactPhone"`
	Remark       string       `gorm:"size:255" json:"remark,omitempty"`
	CreatedAt    time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`

	Item   *item.Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Buyer  *user.User `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Seller *user.User `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
}

// Role 查询视角
type Role string

const (
	RoleBuyer  Role = "buy"
	RoleSeller Role = "sell"
)

// ListFilter 订单列表条件，Status 为空表示全部
type ListFilter struct {
	UserID string
	Role   Role
	Status Status
}

// Repository 订单仓储接口
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// GetDetail 带完整物品与买卖双方联系信息
	GetDetail(ctx context.Context, id string) (*Order, error)
	// List 按创建时间倒序，带物品摘要与双方摘要
	List(ctx context.Context, f ListFilter) ([]*Order, error)

	// GetForUpdate 事务内加行锁读取
	GetForUpdate(ctx context.Context, id string) (*Order, error)
	// UpdateStatus 仅当当前状态仍为 from 时改为 to，否则返回 ErrStatusConflict
	UpdateStatus(ctx context.Context, id string, from, to Status, payTime *time.Time) error
}
