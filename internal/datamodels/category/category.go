package category

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("category not found")

// Category 物品分类
type Category struct {
	ID        string    `gorm:"primaryKey;size:26" json:"id"`
	Name      string    `gorm:"size:32;uniqueIndex;not null" json:"name"`
	Icon      string    `gorm:"size:255" json:"icon,omitempty"`
	ParentID  *string   `gorm:"size:26;index" json:"parentId"`
	Sort      int       `gorm:"not null;default:0;index" json:"-"`
	CreatedAt time.Time `json:"-"`
}

// Repository 分类仓储接口
type Repository interface {
	// List 按 sort 升序返回全部分类
	List(ctx context.Context) ([]*Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	// Upsert 按名称幂等写入，供初始化数据使用
	Upsert(ctx context.Context, c *Category) error
}

// Defaults 初始化时写入的默认分类
func Defaults() []*Category {
	names := []string{"数码电子", "图书教材", "服饰鞋包", "运动户外", "生活用品", "其他"}
	list := make([]*Category, 0, len(names))
	for i, n := range names {
		list = append(list, &Category{Name: n, Sort: i + 1})
	}
	return list
}
