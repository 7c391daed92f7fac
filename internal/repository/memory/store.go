// Package memory 进程内的仓储实现，Store.Driver=memory 时使用，也用于单元测试。
// 所有仓储共用一把锁，事务期间持锁并在失败时回滚物品与订单。
package memory

import (
	"context"
	"sync"

	"github.com/example/xiaoyuanbao/internal/datamodels/category"
	"github.com/example/xiaoyuanbao/internal/datamodels/item"
	"github.com/example/xiaoyuanbao/internal/datamodels/message"
	"github.com/example/xiaoyuanbao/internal/datamodels/order"
	"github.com/example/xiaoyuanbao/internal/datamodels/user"
	"github.com/example/xiaoyuanbao/internal/repository"
)

type Store struct {
	mu sync.Mutex

	users      map[string]*user.User
	schools    map[string]*user.School
	categories map[string]*category.Category
	items      map[string]*item.Item
	orders     map[string]*order.Order
	messages   []*message.Message
}

func New() *Store {
	return &Store{
		users:      make(map[string]*user.User),
		schools:    make(map[string]*user.School),
		categories: make(map[string]*category.Category),
		items:      make(map[string]*item.Item),
		orders:     make(map[string]*order.Order),
	}
}

// guard 事务内已持锁时不再加锁
type guard struct {
	s      *Store
	locked bool
}

func (g guard) lock() func() {
	if g.locked {
		return func() {}
	}
	g.s.mu.Lock()
	return g.s.mu.Unlock
}

func (s *Store) Users() user.Repository { return &userRepo{guard{s: s}} }
func (s *Store) Categories() category.Repository { return &categoryRepo{guard{s: s}} }
func (s *Store) Items() item.Repository { return &itemRepo{guard{s: s}} }
func (s *Store) Orders() order.Repository { return &orderRepo{guard{s: s}} }
func (s *Store) Messages() message.Repository { return &messageRepo{guard{s: s}} }
func (s *Store) Transactor() repository.Transactor { return s }

type txRepos struct {
	g guard
}

func (t txRepos) Items() item.Repository { return &itemRepo{t.g} }
func (t txRepos) Orders() order.Repository { return &orderRepo{t.g} }

// WithinTx 持锁执行 fn，出错时恢复事务开始前的物品与订单
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make(map[string]*item.Item, len(s.items))
	for id, it := range s.items {
		items[id] = cloneItem(it)
	}
	orders := make(map[string]*order.Order, len(s.orders))
	for id, o := range s.orders {
		orders[id] = cloneOrder(o)
	}

	if err := fn(txRepos{guard{s: s, locked: true}}); err != nil {
		s.items = items
		s.orders = orders
		return err
	}
	return nil
}

func cloneUser(u *user.User) *user.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.SchoolID != nil {
		id := *u.SchoolID
		c.SchoolID = &id
	}
	return &c
}

func summaryUser(u *user.User) *user.User {
	if u == nil {
		return nil
	}
	return &user.User{ID: u.ID, Nickname: u.Nickname, Avatar: u.Avatar}
}

func cloneCategory(c *category.Category) *category.Category {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func cloneItem(it *item.Item) *item.Item {
	if it == nil {
		return nil
	}
	c := *it
	c.Images = append([]string(nil), it.Images...)
	if it.OriginalPrice != nil {
		p := *it.OriginalPrice
		c.OriginalPrice = &p
	}
	c.Seller, c.Category, c.School = nil, nil, nil
	return &c
}

func cloneOrder(o *order.Order) *order.Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.PayTime != nil {
		t := *o.PayTime
		c.PayTime = &t
	}
	c.Item, c.Buyer, c.Seller = nil, nil, nil
	return &c
}

func cloneMessage(m *message.Message) *message.Message {
	c := *m
	c.Sender = nil
	return &c
}
