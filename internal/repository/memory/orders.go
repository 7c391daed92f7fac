package memory

import (
	"context"
	"sort"
	"time"

	"github.com/example/xiaoyuanbao/internal/datamodels/order"
	"github.com/example/xiaoyuanbao/internal/datamodels/user"
	"github.com/example/xiaoyuanbao/internal/idgen"
)

type orderRepo struct {
	guard
}

func (r *orderRepo) Create(_ context.Context, o *order.Order) error {
	defer r.lock()()
	for _, existing := range r.s.orders {
		if existing.OrderNo == o.OrderNo {
			return order.ErrDuplicateOrderNo
		}
	}
	if o.ID == "" {
		o.ID = idgen.New()
	}
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	r.s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	defer r.lock()()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *orderRepo) GetDetail(_ context.Context, id string) (*order.Order, error) {
	defer r.lock()()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	out := cloneOrder(o)
	out.Item = cloneItem(r.s.items[o.ItemID])
	out.Buyer = contactUser(r.s, o.BuyerID)
	out.Seller = contactUser(r.s, o.SellerID)
	return out, nil
}

func contactUser(s *Store, id string) *user.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	c := summaryUser(u)
	c.Phone = u.Phone
	return c
}

func (r *orderRepo) List(_ context.Context, f order.ListFilter) ([]*order.Order, error) {
	defer r.lock()()
	var list []*order.Order
	for _, o := range r.s.orders {
		if f.Role == order.RoleSeller {
			if o.SellerID != f.UserID {
				continue
			}
		} else if o.BuyerID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out := cloneOrder(o)
		out.Item = cloneItem(r.s.items[o.ItemID])
		out.Buyer = summaryUser(r.s.users[o.BuyerID])
		out.Seller = summaryUser(r.s.users[o.SellerID])
		list = append(list, out)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepo) UpdateStatus(_ context.Context, id string, from, to order.Status, payTime *time.Time) error {
	defer r.lock()()
	o, ok := r.s.orders[id]
	if !ok || o.Status != from {
		return order.ErrStatusConflict
	}
	o.Status = to
	if payTime != nil {
		t := *payTime
		o.PayTime = &t
	}
	o.UpdatedAt = time.Now()
	return nil
}
