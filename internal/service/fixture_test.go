package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/cache"
	"github.com/example/xiaoyuanbao/internal/datamodels/category"
	"github.com/example/xiaoyuanbao/internal/datamodels/item"
	"github.com/example/xiaoyuanbao/internal/datamodels/order"
	"github.com/example/xiaoyuanbao/internal/datamodels/user"
	"github.com/example/xiaoyuanbao/internal/repository/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []order.Event
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, e order.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.RoutingKey())
	}
	return out
}

type fixture struct {
	ctx   context.Context
	store *memory.Store
	cache *cache.Cache
	mon   *Monitor
	pub   *recordingPublisher

	orders     *OrderService
	catalog    *CatalogService
	categories *CategoryService
	messages   *MessageService

	buyer, seller, stranger *user.User
	cat                     *category.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	mon := NewMonitor()
	log := zap.NewNop()
	c := cache.New(cache.NewMemoryStore(), log, mon)
	pub := &recordingPublisher{}

	d := Deps{
		Users:      store.Users(),
		Categories: store.Categories(),
		Items:      store.Items(),
		Orders:     store.Orders(),
		Messages:   store.Messages(),
		Tx:         store.Transactor(),
		Cache:      c,
		Events:     pub,
		Monitor:    mon,
		Log:        log,
	}

	school := &user.School{Name: "清华大学"}
	require.NoError(t, store.Users().CreateSchool(ctx, school))

	mkUser := func(nick, phone string) *user.User {
		u := &user.User{Nickname: nick, Phone: phone, SchoolID: &school.ID, CreditScore: 100}
		require.NoError(t, store.Users().Create(ctx, u))
		return u
	}

	cat := &category.Category{Name: "数码电子", Sort: 1}
	require.NoError(t, store.Categories().Upsert(ctx, cat))

	return &fixture{
		ctx:        ctx,
		store:      store,
		cache:      c,
		mon:        mon,
		pub:        pub,
		orders:     NewOrderService(d),
		catalog:    NewCatalogService(d),
		categories: NewCategoryService(d),
		messages:   NewMessageService(d),
		buyer:      mkUser("买家", "13800000001"),
		seller:     mkUser("卖家", "13800000002"),
		stranger:   mkUser("路人", "13800000003"),
		cat:        cat,
	}
}

func (f *fixture) newItem(t *testing.T) *item.Item {
	t.Helper()
	it, err := f.catalog.Create(f.ctx, f.seller.ID, CreateItemInput{
		Title:       "iPad Air 5",
		Description: "自用一年，无磕碰，带原装充电器",
		Price:       2300,
		Images:      []string{"https://img.example.com/ipad.jpg"},
		Condition:   "9成新",
		CategoryID:  f.cat.ID,
	})
	require.NoError(t, err)
	return it
}

func (f *fixture) newOrder(t *testing.T, it *item.Item) *order.Order {
	t.Helper()
	o, err := f.orders.Create(f.ctx, f.buyer.ID, CreateOrderInput{
		ItemID:       it.ID,
		DeliveryType: order.DeliveryPickup,
		ContactPhone: "13800000001",
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) itemStatus(t *testing.T, id string) item.Status {
	t.Helper()
	it, err := f.store.Items().GetByID(f.ctx, id)
	require.NoError(t, err)
	return it.Status
}

func (f *fixture) orderStatus(t *testing.T, id string) order.Status {
	t.Helper()
	o, err := f.store.Orders().GetByID(f.ctx, id)
	require.NoError(t, err)
	return o.Status
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	ae := AsAppError(err)
	require.Equal(t, code, ae.Code, "unexpected error: %v", err)
}
