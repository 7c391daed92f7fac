package memory

import (
	"context"
	"sort"

	"github.com/example/xiaoyuanbao/internal/datamodels/category"
	"github.com/example/xiaoyuanbao/internal/idgen"
)

type categoryRepo struct {
	guard
}

func (r *categoryRepo) List(_ context.Context) ([]*category.Category, error) {
	defer r.lock()()
	list := make([]*category.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		list = append(list, cloneCategory(c))
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Sort != list[j].Sort {
			return list[i].Sort < list[j].Sort
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (r *categoryRepo) GetByID(_ context.Context, id string) (*category.Category, error) {
	defer r.lock()()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, category.ErrNotFound
	}
	return cloneCategory(c), nil
}

func (r *categoryRepo) Upsert(_ context.Context, c *category.Category) error {
	defer r.lock()()
	for _, existing := range r.s.categories {
		if existing.Name == c.Name {
			existing.Icon = c.Icon
			existing.Sort = c.Sort
			c.ID = existing.ID
			return nil
		}
	}
	if c.ID == "" {
		c.ID = idgen.New()
	}
	r.s.categories[c.ID] = cloneCategory(c)
	return nil
}
