package service

import (
	"context"

	"github.com/example/xiaoyuanbao/internal/cache"
	"github.com/example/xiaoyuanbao/internal/datamodels/category"
)

type CategoryService struct {
	Deps
}

func NewCategoryService(d Deps) *CategoryService {
	return &CategoryService{Deps: d.withDefaults()}
}

// List 分类读多写少，整体缓存
func (s *CategoryService) List(ctx context.Context) ([]*category.Category, error) {
	list, err := cache.GetOrSet(ctx, s.Cache, cache.CategoryListKey, s.CacheTTL.CategoryTTL, s.Categories.List)
	if err != nil {
		return nil, s.internal("list categories", err)
	}
	return list, nil
}

// SeedDefaults 写入默认分类并刷新缓存
func (s *CategoryService) SeedDefaults(ctx context.Context) error {
	for _, c := range category.Defaults() {
		if err := s.Categories.Upsert(ctx, c); err != nil {
			return s.internal("seed category", err)
		}
	}
	_ = s.Cache.Invalidate(ctx, cache.CategoryListKey)
	return nil
}
