package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/xiaoyuanbao/internal/datamodels/category"
)

type categoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) category.Repository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) List(ctx context.Context) ([]*category.Category, error) {
	var list []*category.Category
	if err := r.db.WithContext(ctx).
		Order("sort ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *categoryRepo) GetByID(ctx context.Context, id string) (*category.Category, error) {
	var c category.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, category.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Upsert 名称已存在时只刷新图标与排序
func (r *categoryRepo) Upsert(ctx context.Context, c *category.Category) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"icon", "sort"}),
	}).Create(c).Error
}
