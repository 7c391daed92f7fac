package item

import (
	"context"
	"errors"
	"time"

	"github.com/example/xiaoyuanbao/internal/datamodels/category"
	"github.com/example/xiaoyuanbao/internal/datamodels/user"
)

var (
	ErrNotFound = errors.New("item not found")
	// ErrUnavailable 条件抢占失败：物品已不是 available
	ErrUnavailable = errors.New("item no longer available")
	// ErrNotSold 释放失败：物品当前不是 sold
	ErrNotSold = errors.New("item is not sold")
	// ErrStatusLocked 物品处于 sold，状态由订单流程独占
	ErrStatusLocked = errors.New("item status is locked by an active order")
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
	StatusRented    Status = "rented"
	StatusRemoved   Status = "removed"
)

type Type string

const (
	TypeSale Type = "sale"
	TypeRent Type = "rent"
)

// Conditions 成色枚举
var Conditions = []string{"全新", "9成新", "8成新", "7成新", "6成新以下"}

// Item 物品（商品）模型，只做软删除
type Item struct {
	ID            string    `gorm:"primaryKey;size:26" json:"id"`
	Title         string    `gorm:"size:64;not null" json:"title"`
	Description   string    `gorm:"type:text;not null" json:"description,omitempty"`
	Price         float64   `gorm:"type:decimal(10,2);not null;index" json:"price"`
	OriginalPrice *float64  `gorm:"type:decimal(10,2)" json:"originalPrice,omitempty"`
	Images        []string  `gorm:"serializer:json;type:json" json:"images"`
	Condition     string    `gorm:"size:16;not null" json:"condition"`
	CategoryID    string    `gorm:"size:26;index;not null" json:"categoryId"`
	SellerID      string    `gorm:"size:26;index;not null" json:"sellerId"`
	SchoolID      string    `gorm:"size:26;index;not null" json:"schoolId"`
	Location      string    `gorm:"size:128" json:"location,omitempty"`
	Status        Status    `gorm:"size:16;index;not null" json:"status"`
	Type          Type      `gorm:"size:16;index;not null" json:"type"`
	Views         int64     `gorm:"not null;default:0;index" json:"views"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	Seller   *user.User         `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Category *category.Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	School   *user.School       `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
}

// SortField 列表排序字段
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByPrice     SortField = "price"
	SortByViews     SortField = "views"
)

// Filter 列表查询条件
type Filter struct {
	CategoryID string
	SchoolID   string
	Status     Status
	Type       Type
	Keyword    string
	SortBy     SortField
	Desc       bool
	Offset     int
	Limit      int
}

// Patch 允许卖家修改的字段，nil 表示不修改
type Patch struct {
	Title       *string
	Description *string
	Price       *float64
	Images      []string
	Condition   *string
	Status      *Status
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil &&
		p.Images == nil && p.Condition == nil && p.Status == nil
}

// Repository 物品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id string) (*Item, error)
	// GetDetail 带卖家、分类、学校信息
	GetDetail(ctx context.Context, id string) (*Item, error)
	// List 带卖家与分类摘要，返回分页数据与总数
	List(ctx context.Context, f Filter) ([]*Item, int64, error)
	Create(ctx context.Context, it *Item) error
	// Update 修改 Patch 中的字段；修改 status 时若物品处于 sold 返回 ErrStatusLocked
	Update(ctx context.Context, id string, p Patch) error
	// IncrementViews 浏览量 +1，返回自增后的值
	IncrementViews(ctx context.Context, id string) (int64, error)

	// ClaimAvailable 原子地把 available 改为 sold，否则返回 ErrUnavailable
	ClaimAvailable(ctx context.Context, id string) error
	// Release 原子地把 sold 改回 available，否则返回 ErrNotSold
	Release(ctx context.Context, id string) error
}
