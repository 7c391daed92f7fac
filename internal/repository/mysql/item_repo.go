package mysql

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/example/xiaoyuanbao/internal/datamodels/item"
)

type itemRepo struct {
	db *gorm.DB
}

// NewItemRepository 创建物品仓储
func NewItemRepository(db *gorm.DB) item.Repository {
	return &itemRepo{db: db}
}

// 卖家摘要只取展示字段
func sellerSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "nickname", "avatar", "credit_score", "credit_level")
}

func (r *itemRepo) GetByID(ctx context.Context, id string) (*item.Item, error) {
	var it item.Item
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, item.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (r *itemRepo) GetDetail(ctx context.Context, id string) (*item.Item, error) {
	var it item.Item
	err := r.db.WithContext(ctx).
		Preload("Seller", sellerSummary).
		Preload("Category").
		Preload("School").
		Where("id = ?", id).
		First(&it).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, item.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// likeEscaper 关键字按字面子串匹配，% 和 _ 不作通配
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

var sortColumns = map[item.SortField]string{
	item.SortByCreatedAt: "created_at",
	item.SortByPrice:     "price",
	item.SortByViews:     "views",
}

func (r *itemRepo) List(ctx context.Context, f item.Filter) ([]*item.Item, int64, error) {
	q := r.db.WithContext(ctx).Model(&item.Item{})
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.SchoolID != "" {
		q = q.Where("school_id = ?", f.SchoolID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(kw)) + "%"
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')", like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := " ASC"
	if f.Desc {
		dir = " DESC"
	}

	var list []*item.Item
	err := q.Preload("Seller", sellerSummary).
		Preload("Category").
		Order(col + dir).
		Order("id" + dir).
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *itemRepo) Create(ctx context.Context, it *item.Item) error {
	return r.db.WithContext(ctx).Omit("Seller", "Category", "School").Create(it).Error
}

func (r *itemRepo) Update(ctx context.Context, id string, p item.Patch) error {
	var (
		cols = []string{"updated_at"}
		upd  = item.Item{UpdatedAt: time.Now()}
	)
	if p.Title != nil {
		cols, upd.Title = append(cols, "title"), *p.Title
	}
	if p.Description != nil {
		cols, upd.Description = append(cols, "description"), *p.Description
	}
	if p.Price != nil {
		cols, upd.Price = append(cols, "price"), *p.Price
	}
	if p.Images != nil {
		cols, upd.Images = append(cols, "images"), p.Images
	}
	if p.Condition != nil {
		cols, upd.Condition = append(cols, "condition"), *p.Condition
	}

	q := r.db.WithContext(ctx).Model(&item.Item{}).Where("id = ?", id)
	if p.Status != nil {
		cols, upd.Status = append(cols, "status"), *p.Status
		// sold 由订单流程独占，卖家不能改走
		q = q.Where("status <> ?", item.StatusSold)
	}

	res := q.Select(cols).Updates(&upd)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	if p.Status != nil {
		return item.ErrStatusLocked
	}
	return nil
}

func (r *itemRepo) IncrementViews(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&item.Item{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, item.ErrNotFound
	}

	var views int64
	if err := r.db.WithContext(ctx).Model(&item.Item{}).
		Select("views").
		Where("id = ?", id).
		Row().Scan(&views); err != nil {
		return 0, err
	}
	return views, nil
}

func (r *itemRepo) ClaimAvailable(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&item.Item{}).
		Where("id = ? AND status = ?", id, item.StatusAvailable).
		Update("status", item.StatusSold)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return item.ErrUnavailable
	}
	return nil
}

func (r *itemRepo) Release(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&item.Item{}).
		Where("id = ? AND status = ?", id, item.StatusSold).
		Update("status", item.StatusAvailable)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return item.ErrNotSold
	}
	return nil
}
