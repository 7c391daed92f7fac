package service

import (
	"context"
	"errors"
	"strings"

	"github.com/example/xiaoyuanbao/internal/cache"
	"github.com/example/xiaoyuanbao/internal/datamodels/category"
	"github.com/example/xiaoyuanbao/internal/datamodels/item"
	"github.com/example/xiaoyuanbao/internal/datamodels/user"
	"github.com/example/xiaoyuanbao/internal/idgen"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// Page 页码从 1 开始
type Page struct {
	Page     int
	PageSize int
}

// Normalize 补默认值并限制单页上限
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// CatalogService 物品发布、查询与维护
type CatalogService struct {
	Deps
}

func NewCatalogService(d Deps) *CatalogService {
	return &CatalogService{Deps: d.withDefaults()}
}

// List 未指定状态时只看在售物品
func (s *CatalogService) List(ctx context.Context, f item.Filter, p Page) ([]*item.Item, int64, error) {
	p = p.Normalize()
	if f.Status == "" {
		f.Status = item.StatusAvailable
	}
	f.Offset, f.Limit = p.Offset(), p.PageSize

	list, total, err := s.Items.List(ctx, f)
	if err != nil {
		return nil, 0, s.internal("list items", err)
	}
	return list, total, nil
}

// Get 详情走缓存，浏览量每次从存储自增后回填
func (s *CatalogService) Get(ctx context.Context, id string) (*item.Item, error) {
	it, err := cache.GetOrSet(ctx, s.Cache, cache.ItemKey(id), s.CacheTTL.ItemTTL, func(ctx context.Context) (*item.Item, error) {
		return s.Items.GetDetail(ctx, id)
	})
	if err != nil {
		if errors.Is(err, item.ErrNotFound) {
			return nil, NotFound("物品不存在")
		}
		return nil, s.internal("get item", err)
	}

	views, err := s.Items.IncrementViews(ctx, id)
	if err != nil {
		if errors.Is(err, item.ErrNotFound) {
			return nil, NotFound("物品不存在")
		}
		return nil, s.internal("increment views", err)
	}
	it.Views = views
	return it, nil
}

// CreateItemInput 发布物品参数
type CreateItemInput struct {
	Title         string
	Description   string
	Price         float64
	OriginalPrice *float64
	Images        []string
	Condition     string
	CategoryID    string
	Location      string
	Type          item.Type
}

// Create 卖家必须已绑定学校，分类必须存在
func (s *CatalogService) Create(ctx context.Context, sellerID string, in CreateItemInput) (*item.Item, error) {
	seller, err := s.Users.GetByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, Unauthorized("用户不存在")
		}
		return nil, s.internal("load seller", err)
	}
	if !seller.HasSchool() {
		return nil, BadRequest("", "请先完善学校信息")
	}

	cat, err := s.Categories.GetByID(ctx, in.CategoryID)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return nil, BadRequest("", "分类不存在")
		}
		return nil, s.internal("load category", err)
	}

	typ := in.Type
	if typ == "" {
		typ = item.TypeSale
	}
	it := &item.Item{
		ID:            idgen.New(),
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Images:        in.Images,
		Condition:     in.Condition,
		CategoryID:    cat.ID,
		SellerID:      seller.ID,
		SchoolID:      *seller.SchoolID,
		Location:      in.Location,
		Status:        item.StatusAvailable,
		Type:          typ,
	}
	if err := s.Items.Create(ctx, it); err != nil {
		return nil, s.internal("create item", err)
	}

	it.Seller = &user.User{ID: seller.ID, Nickname: seller.Nickname, Avatar: seller.Avatar}
	it.Category = cat
	return it, nil
}

// 卖家可以手动设置的状态；sold 只能由订单流程写入
var sellerSettable = map[item.Status]bool{
	item.StatusAvailable: true,
	item.StatusRented:    true,
	item.StatusRemoved:   true,
}

// Update 仅发布者可改，字段限于 Patch 白名单
func (s *CatalogService) Update(ctx context.Context, userID, id string, p item.Patch) (*item.Item, error) {
	if p.Empty() {
		return nil, Validation("没有需要更新的字段")
	}
	if p.Status != nil && !sellerSettable[*p.Status] {
		return nil, Validation("status 只能是 available、rented 或 removed")
	}

	it, err := s.ownedItem(ctx, userID, id, "只能修改自己发布的物品")
	if err != nil {
		return nil, err
	}
	if p.Status != nil && it.Status == item.StatusSold {
		return nil, BadRequest("", "物品已售出，状态由订单维护")
	}

	if err := s.Items.Update(ctx, id, p); err != nil {
		switch {
		case errors.Is(err, item.ErrStatusLocked):
			return nil, BadRequest("", "物品已售出，状态由订单维护")
		case errors.Is(err, item.ErrNotFound):
			return nil, NotFound("物品不存在")
		}
		return nil, s.internal("update item", err)
	}
	_ = s.Cache.Invalidate(ctx, cache.ItemKey(id))

	updated, err := s.Items.GetDetail(ctx, id)
	if err != nil {
		return nil, s.internal("reload item", err)
	}
	return updated, nil
}

// Delete 软删除：状态置为 removed
func (s *CatalogService) Delete(ctx context.Context, userID, id string) error {
	it, err := s.ownedItem(ctx, userID, id, "只能删除自己发布的物品")
	if err != nil {
		return err
	}
	if it.Status == item.StatusSold {
		return BadRequest("", "物品已售出，不能删除")
	}
	if it.Status == item.StatusRemoved {
		return nil
	}

	removed := item.StatusRemoved
	if err := s.Items.Update(ctx, id, item.Patch{Status: &removed}); err != nil {
		if errors.Is(err, item.ErrStatusLocked) {
			return BadRequest("", "物品已售出，不能删除")
		}
		return s.internal("remove item", err)
	}
	_ = s.Cache.Invalidate(ctx, cache.ItemKey(id))
	return nil
}

func (s *CatalogService) ownedItem(ctx context.Context, userID, id, denied string) (*item.Item, error) {
	it, err := s.Items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, item.ErrNotFound) {
			return nil, NotFound("物品不存在")
		}
		return nil, s.internal("load item", err)
	}
	if it.SellerID != userID {
		return nil, Forbidden(denied)
	}
	return it, nil
}
