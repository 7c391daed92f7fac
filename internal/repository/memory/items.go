package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/example/xiaoyuanbao/internal/datamodels/item"
	"github.com/example/xiaoyuanbao/internal/idgen"
)

type itemRepo struct {
	guard
}

func (r *itemRepo) GetByID(_ context.Context, id string) (*item.Item, error) {
	defer r.lock()()
	it, ok := r.s.items[id]
	if !ok {
		return nil, item.ErrNotFound
	}
	return cloneItem(it), nil
}

func (r *itemRepo) GetDetail(_ context.Context, id string) (*item.Item, error) {
	defer r.lock()()
	it, ok := r.s.items[id]
	if !ok {
		return nil, item.ErrNotFound
	}
	out := cloneItem(it)
	if u, ok := r.s.users[it.SellerID]; ok {
		out.Seller = summaryUser(u)
		out.Seller.CreditScore = u.CreditScore
		out.Seller.CreditLevel = u.CreditLevel
	}
	out.Category = cloneCategory(r.s.categories[it.CategoryID])
	if sc, ok := r.s.schools[it.SchoolID]; ok {
		cp := *sc
		out.School = &cp
	}
	return out, nil
}

func (r *itemRepo) List(_ context.Context, f item.Filter) ([]*item.Item, int64, error) {
	defer r.lock()()
	kw := strings.ToLower(strings.TrimSpace(f.Keyword))

	var matched []*item.Item
	for _, it := range r.s.items {
		switch {
		case f.CategoryID != "" && it.CategoryID != f.CategoryID,
			f.SchoolID != "" && it.SchoolID != f.SchoolID,
			f.Status != "" && it.Status != f.Status,
			f.Type != "" && it.Type != f.Type:
			continue
		}
		if kw != "" &&
			!strings.Contains(strings.ToLower(it.Title), kw) &&
			!strings.Contains(strings.ToLower(it.Description), kw) {
			continue
		}
		matched = append(matched, it)
	}

	less := func(a, b *item.Item) int {
		switch f.SortBy {
		case item.SortByPrice:
			return compare(a.Price, b.Price)
		case item.SortByViews:
			return compare(a.Views, b.Views)
		default:
			return compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		c := less(matched[i], matched[j])
		if c == 0 {
			c = strings.Compare(matched[i].ID, matched[j].ID)
		}
		if f.Desc {
			return c > 0
		}
		return c < 0
	})

	total := int64(len(matched))
	start := min(max(f.Offset, 0), len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(matched))
	}

	list := make([]*item.Item, 0, end-start)
	for _, it := range matched[start:end] {
		out := cloneItem(it)
		out.Seller = summaryUser(r.s.users[it.SellerID])
		out.Category = cloneCategory(r.s.categories[it.CategoryID])
		list = append(list, out)
	}
	return list, total, nil
}

func compare[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (r *itemRepo) Create(_ context.Context, it *item.Item) error {
	defer r.lock()()
	if it.ID == "" {
		it.ID = idgen.New()
	}
	now := time.Now()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now
	r.s.items[it.ID] = cloneItem(it)
	return nil
}

func (r *itemRepo) Update(_ context.Context, id string, p item.Patch) error {
	defer r.lock()()
	it, ok := r.s.items[id]
	if !ok {
		return item.ErrNotFound
	}
	if p.Status != nil && it.Status == item.StatusSold {
		return item.ErrStatusLocked
	}
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Price != nil {
		it.Price = *p.Price
	}
	if p.Images != nil {
		it.Images = append([]string(nil), p.Images...)
	}
	if p.Condition != nil {
		it.Condition = *p.Condition
	}
	if p.Status != nil {
		it.Status = *p.Status
	}
	it.UpdatedAt = time.Now()
	return nil
}

func (r *itemRepo) IncrementViews(_ context.Context, id string) (int64, error) {
	defer r.lock()()
	it, ok := r.s.items[id]
	if !ok {
		return 0, item.ErrNotFound
	}
	it.Views++
	return it.Views, nil
}

func (r *itemRepo) ClaimAvailable(_ context.Context, id string) error {
	defer r.lock()()
	it, ok := r.s.items[id]
	if !ok || it.Status != item.StatusAvailable {
		return item.ErrUnavailable
	}
	it.Status = item.StatusSold
	it.UpdatedAt = time.Now()
	return nil
}

func (r *itemRepo) Release(_ context.Context, id string) error {
	defer r.lock()()
	it, ok := r.s.items[id]
	if !ok || it.Status != item.StatusSold {
		return item.ErrNotSold
	}
	it.Status = item.StatusAvailable
	it.UpdatedAt = time.Now()
	return nil
}
