package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/kataras/iris/v12/httptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/auth"
	"github.com/example/xiaoyuanbao/internal/cache"
	"github.com/example/xiaoyuanbao/internal/config"
	"github.com/example/xiaoyuanbao/internal/datamodels/user"
	"github.com/example/xiaoyuanbao/internal/repository/memory"
	"github.com/example/xiaoyuanbao/internal/service"
)

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorBody      `json:"error"`
	Meta    *Meta           `json:"meta"`
}

func parse(t *testing.T, raw string) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env), raw)
	return env
}

func (e testEnvelope) into(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, v))
}

type testServer struct {
	expect                  *httptest.Expect
	buyer, seller, stranger string
	tokens                  map[string]string
	categoryID              string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.RateLimit.Burst = 1000
	log := zap.NewNop()

	store := memory.New()
	mon := service.NewMonitor()
	kv := cache.NewMemoryStore()
	deps := service.Deps{
		Users:      store.Users(),
		Categories: store.Categories(),
		Items:      store.Items(),
		Orders:     store.Orders(),
		Messages:   store.Messages(),
		Tx:         store.Transactor(),
		Cache:      cache.New(kv, log, mon),
		Monitor:    mon,
	}
	s := NewServices(cfg, deps, kv, log)
	require.NoError(t, s.Categories.SeedDefaults(ctx))

	school := &user.School{Name: "北京大学"}
	require.NoError(t, store.Users().CreateSchool(ctx, school))

	ts := &testServer{tokens: map[string]string{}}
	for _, u := range []*user.User{
		{Nickname: "买家", Phone: "13800000001", SchoolID: &school.ID},
		{Nickname: "卖家", Phone: "13800000002", SchoolID: &school.ID},
		{Nickname: "路人", Phone: "13800000003", SchoolID: &school.ID},
	} {
		require.NoError(t, store.Users().Create(ctx, u))
		tok, err := auth.GenerateToken(&cfg.JWT, u.ID)
		require.NoError(t, err)
		ts.tokens[u.ID] = tok
		switch u.Nickname {
		case "买家":
			ts.buyer = u.ID
		case "卖家":
			ts.seller = u.ID
		default:
			ts.stranger = u.ID
		}
	}

	cats, err := s.Categories.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cats)
	ts.categoryID = cats[0].ID

	ts.expect = httptest.New(t, NewApp(s, log))
	return ts
}

func (ts *testServer) bearer(userID string) string {
	return "Bearer " + ts.tokens[userID]
}

func (ts *testServer) itemBody() map[string]interface{} {
	return map[string]interface{}{
		"title":       "二手机械键盘",
		"description": "青轴，用了半年，功能完好无损",
		"price":       99.5,
		"images":      []string{"https://img.example.com/kb.jpg"},
		"condition":   "9成新",
		"categoryId":  ts.categoryID,
		"location":    "三食堂门口",
	}
}

func (ts *testServer) createItem(t *testing.T) string {
	t.Helper()
	raw := ts.expect.POST("/api/items").
		WithHeader("Authorization", ts.bearer(ts.seller)).
		WithJSON(ts.itemBody()).
		Expect().Status(http.StatusCreated).Body().Raw()
	var it struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Type   string `json:"type"`
	}
	parse(t, raw).into(t, &it)
	assert.Equal(t, "available", it.Status)
	assert.Equal(t, "sale", it.Type)
	return it.ID
}

func (ts *testServer) createOrder(t *testing.T, buyer, itemID string, status int) string {
	t.Helper()
	return ts.expect.POST("/api/orders").
		WithHeader("Authorization", ts.bearer(buyer)).
		WithJSON(map[string]interface{}{
			"itemId":       itemID,
			"deliveryType": "pickup",
			"contactPhone": "13800000001",
		}).
		Expect().Status(status).Body().Raw()
}

func requireError(t *testing.T, raw, code string) {
	t.Helper()
	env := parse(t, raw)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error, raw)
	assert.Equal(t, code, env.Error.Code)
}

func TestHealthAndCategories(t *testing.T) {
	ts := newTestServer(t)
	ts.expect.GET("/api/health").Expect().Status(http.StatusOK)

	env := parse(t, ts.expect.GET("/api/categories").Expect().Status(http.StatusOK).Body().Raw())
	var cats []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	env.into(t, &cats)
	require.NotEmpty(t, cats)
	assert.Equal(t, "数码电子", cats[0].Name)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	ts := newTestServer(t)
	raw := ts.expect.GET("/api/nothing-here").Expect().Status(http.StatusNotFound).Body().Raw()
	requireError(t, raw, "NOT_FOUND")
}

func TestCreateItemRequiresAuthAndValidBody(t *testing.T) {
	ts := newTestServer(t)

	raw := ts.expect.POST("/api/items").WithJSON(ts.itemBody()).
		Expect().Status(http.StatusUnauthorized).Body().Raw()
	requireError(t, raw, "UNAUTHORIZED")

	raw = ts.expect.POST("/api/items").
		WithHeader("Authorization", "Bearer not-a-jwt").
		WithJSON(ts.itemBody()).
		Expect().Status(http.StatusUnauthorized).Body().Raw()
	requireError(t, raw, "UNAUTHORIZED")

	invalid := []func(b map[string]interface{}){
		func(b map[string]interface{}) { b["title"] = "键" },
		func(b map[string]interface{}) { b["description"] = "太短" },
		func(b map[string]interface{}) { b["price"] = 0 },
		func(b map[string]interface{}) { b["price"] = 0.01 },
		func(b map[string]interface{}) { b["images"] = []string{} },
		func(b map[string]interface{}) { b["images"] = []string{"not a url"} },
		func(b map[string]interface{}) { b["condition"] = "崭新" },
		func(b map[string]interface{}) { b["type"] = "swap" },
		func(b map[string]interface{}) { delete(b, "categoryId") },
	}
	for _, mutate := range invalid {
		body := ts.itemBody()
		mutate(body)
		raw := ts.expect.POST("/api/items").
			WithHeader("Authorization", ts.bearer(ts.seller)).
			WithJSON(body).
			Expect().Status(http.StatusBadRequest).Body().Raw()
		requireError(t, raw, "VALIDATION_ERROR")
	}

	raw = ts.expect.POST("/api/items").
		WithHeader("Authorization", ts.bearer(ts.seller)).
		WithBytes([]byte("{")).WithHeader("Content-Type", "application/json").
		Expect().Status(http.StatusBadRequest).Body().Raw()
	requireError(t, raw, "VALIDATION_ERROR")
}

func TestCreateAliasAndListing(t *testing.T) {
	ts := newTestServer(t)
	ts.createItem(t)
	ts.expect.POST("/api/items/create").
		WithHeader("Authorization", ts.bearer(ts.seller)).
		WithJSON(ts.itemBody()).
		Expect().Status(http.StatusCreated)

	env := parse(t, ts.expect.GET("/api/items").
		WithQuery("pageSize", 1).
		Expect().Status(http.StatusOK).Body().Raw())
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(2), env.Meta.Total)
	assert.Equal(t, 1, env.Meta.Page)
	assert.Equal(t, 1, env.Meta.PageSize)
	var list []map[string]interface{}
	env.into(t, &list)
	assert.Len(t, list, 1)

	env = parse(t, ts.expect.GET("/api/items").
		WithQuery("keyword", "键盘").WithQuery("sortBy", "price").WithQuery("sortOrder", "asc").
		Expect().Status(http.StatusOK).Body().Raw())
	assert.Equal(t, int64(2), env.Meta.Total)

	env = parse(t, ts.expect.GET("/api/items").WithQuery("keyword", "自行车").
		Expect().Status(http.StatusOK).Body().Raw())
	assert.Equal(t, int64(0), env.Meta.Total)
	assert.JSONEq(t, `[]`, string(env.Data))

	for _, q := range []map[string]string{
		{"pageSize": "51"},
		{"page": "0"},
		{"page": "abc"},
		{"sortBy": "title"},
		{"status": "removed"},
	} {
		req := ts.expect.GET("/api/items")
		for k, v := range q {
			req = req.WithQuery(k, v)
		}
		requireError(t, req.Expect().Status(http.StatusBadRequest).Body().Raw(), "VALIDATION_ERROR")
	}
}

func TestItemDetailCountsViews(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createItem(t)

	var it struct {
		Views  int64 `json:"views"`
		Seller struct {
			Nickname string `json:"nickname"`
			Phone    string `json:"phone"`
		} `json:"seller"`
	}
	parse(t, ts.expect.GET("/api/items/"+id).Expect().Status(http.StatusOK).Body().Raw()).into(t, &it)
	assert.Equal(t, int64(1), it.Views)
	assert.Equal(t, "卖家", it.Seller.Nickname)
	assert.Empty(t, it.Seller.Phone)

	parse(t, ts.expect.GET("/api/items/"+id).Expect().Status(http.StatusOK).Body().Raw()).into(t, &it)
	assert.Equal(t, int64(2), it.Views)

	requireError(t, ts.expect.GET("/api/items/missing").Expect().Status(http.StatusNotFound).Body().Raw(), "NOT_FOUND")
}

func TestItemUpdateAndDelete(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createItem(t)

	raw := ts.expect.PATCH("/api/items/"+id).
		WithHeader("Authorization", ts.bearer(ts.stranger)).
		WithJSON(map[string]interface{}{"price": 50}).
		Expect().Status(http.StatusForbidden).Body().Raw()
	requireError(t, raw, "FORBIDDEN")

	var it struct {
		Price    float64 `json:"price"`
		SellerID string  `json:"sellerId"`
	}
	parse(t, ts.expect.PATCH("/api/items/"+id).
		WithHeader("Authorization", ts.bearer(ts.seller)).
		WithJSON(map[string]interface{}{"price": 50, "sellerId": ts.stranger}).
		Expect().Status(http.StatusOK).Body().Raw()).into(t, &it)
	assert.Equal(t, 50.0, it.Price)
	assert.Equal(t, ts.seller, it.SellerID)

	raw = ts.expect.PATCH("/api/items/"+id).
		WithHeader("Authorization", ts.bearer(ts.seller)).
		WithJSON(map[string]interface{}{"status": "sold"}).
		Expect().Status(http.StatusBadRequest).Body().Raw()
	requireError(t, raw, "VALIDATION_ERROR")

	ts.expect.DELETE("/api/items/"+id).
		WithHeader("Authorization", ts.bearer(ts.seller)).
		Expect().Status(http.StatusOK)

	env := parse(t, ts.expect.GET("/api/items").Expect().Status(http.StatusOK).Body().Raw())
	assert.Equal(t, int64(0), env.Meta.Total)
}

func TestOrderFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	itemID := ts.createItem(t)

	requireError(t, ts.createOrder(t, ts.seller, itemID, http.StatusBadRequest), "SELF_TRADE")

	var o struct {
		ID      string  `json:"id"`
		OrderNo string  `json:"orderNo"`
		Status  string  `json:"status"`
		Amount  float64 `json:"amount"`
	}
	parse(t, ts.createOrder(t, ts.buyer, itemID, http.StatusCreated)).into(t, &o)
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, 99.5, o.Amount)
	assert.Regexp(t, `^ORD\d{14}\d{4}$`, o.OrderNo)

	requireError(t, ts.createOrder(t, ts.stranger, itemID, http.StatusBadRequest), "ITEM_UNAVAILABLE")

	action := func(userID, act string, status int) string {
		return ts.expect.PATCH("/api/orders/"+o.ID).
			WithHeader("Authorization", ts.bearer(userID)).
			WithJSON(map[string]string{"action": act}).
			Expect().Status(status).Body().Raw()
	}

	requireError(t, action(ts.seller, "pay", http.StatusForbidden), "FORBIDDEN")
	requireError(t, action(ts.buyer, "refund", http.StatusBadRequest), "VALIDATION_ERROR")
	requireError(t, action(ts.buyer, "ship", http.StatusForbidden), "FORBIDDEN")

	var st struct {
		Status string `json:"status"`
	}
	parse(t, action(ts.buyer, "pay", http.StatusOK)).into(t, &st)
	assert.Equal(t, "paid", st.Status)
	requireError(t, action(ts.buyer, "pay", http.StatusBadRequest), "INVALID_TRANSITION")
	parse(t, action(ts.seller, "ship", http.StatusOK)).into(t, &st)
	assert.Equal(t, "shipping", st.Status)
	parse(t, action(ts.buyer, "confirm", http.StatusOK)).into(t, &st)
	assert.Equal(t, "completed", st.Status)

	requireError(t, ts.expect.GET("/api/orders/"+o.ID).
		WithHeader("Authorization", ts.bearer(ts.stranger)).
		Expect().Status(http.StatusForbidden).Body().Raw(), "FORBIDDEN")

	var detail struct {
		Status string `json:"status"`
		Seller struct {
			Phone string `json:"phone"`
		} `json:"seller"`
	}
	parse(t, ts.expect.GET("/api/orders/"+o.ID).
		WithHeader("Authorization", ts.bearer(ts.buyer)).
		Expect().Status(http.StatusOK).Body().Raw()).into(t, &detail)
	assert.Equal(t, "completed", detail.Status)
	assert.Equal(t, "13800000002", detail.Seller.Phone)

	var sold []struct {
		ID string `json:"id"`
	}
	parse(t, ts.expect.GET("/api/orders").WithQuery("type", "sell").
		WithHeader("Authorization", ts.bearer(ts.seller)).
		Expect().Status(http.StatusOK).Body().Raw()).into(t, &sold)
	require.Len(t, sold, 1)
	assert.Equal(t, o.ID, sold[0].ID)

	env := parse(t, ts.expect.GET("/api/orders").WithQuery("type", "buy").
		WithHeader("Authorization", ts.bearer(ts.seller)).
		Expect().Status(http.StatusOK).Body().Raw())
	assert.JSONEq(t, `[]`, string(env.Data))

	requireError(t, ts.expect.DELETE("/api/items/"+itemID).
		WithHeader("Authorization", ts.bearer(ts.seller)).
		Expect().Status(http.StatusBadRequest).Body().Raw(), "BAD_REQUEST")
}

func TestCancelReleasesItem(t *testing.T) {
	ts := newTestServer(t)
	itemID := ts.createItem(t)

	var o struct {
		ID string `json:"id"`
	}
	parse(t, ts.createOrder(t, ts.buyer, itemID, http.StatusCreated)).into(t, &o)
	ts.expect.PATCH("/api/orders/"+o.ID).
		WithHeader("Authorization", ts.bearer(ts.buyer)).
		WithJSON(map[string]string{"action": "cancel"}).
		Expect().Status(http.StatusOK)

	var it struct {
		Status string `json:"status"`
	}
	parse(t, ts.expect.GET("/api/items/"+itemID).Expect().Status(http.StatusOK).Body().Raw()).into(t, &it)
	assert.Equal(t, "available", it.Status)

	ts.createOrder(t, ts.stranger, itemID, http.StatusCreated)
}

func TestMessagesOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	send := func(from, to, content string) {
		ts.expect.POST("/api/messages").
			WithHeader("Authorization", ts.bearer(from)).
			WithJSON(map[string]string{"receiverId": to, "content": content}).
			Expect().Status(http.StatusCreated)
	}
	send(ts.buyer, ts.seller, "键盘还在吗？")
	send(ts.buyer, ts.seller, "今晚能面交吗？")
	send(ts.seller, ts.buyer, "在的")

	requireError(t, ts.expect.POST("/api/messages").
		WithHeader("Authorization", ts.bearer(ts.buyer)).
		WithJSON(map[string]string{"receiverId": ts.seller, "content": ""}).
		Expect().Status(http.StatusBadRequest).Body().Raw(), "VALIDATION_ERROR")

	var convs []struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		UnreadCount int64 `json:"unreadCount"`
		LastMessage struct {
			Content string `json:"content"`
		} `json:"lastMessage"`
	}
	parse(t, ts.expect.GET("/api/messages").
		WithHeader("Authorization", ts.bearer(ts.seller)).
		Expect().Status(http.StatusOK).Body().Raw()).into(t, &convs)
	require.Len(t, convs, 1)
	assert.Equal(t, ts.buyer, convs[0].User.ID)
	assert.Equal(t, int64(2), convs[0].UnreadCount)
	assert.Equal(t, "在的", convs[0].LastMessage.Content)

	env := parse(t, ts.expect.GET("/api/messages").WithQuery("with", ts.buyer).
		WithHeader("Authorization", ts.bearer(ts.seller)).
		Expect().Status(http.StatusOK).Body().Raw())
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(3), env.Meta.Total)

	parse(t, ts.expect.GET("/api/messages").
		WithHeader("Authorization", ts.bearer(ts.seller)).
		Expect().Status(http.StatusOK).Body().Raw()).into(t, &convs)
	require.Len(t, convs, 1)
	assert.Equal(t, int64(0), convs[0].UnreadCount)

	ts.expect.GET("/api/messages").Expect().Status(http.StatusUnauthorized)
}

func TestAdminRoutes(t *testing.T) {
	mon := service.NewMonitor()
	mon.RecordOrderCreated()
	e := httptest.New(t, NewAdminApp(mon))

	e.GET("/metrics").Expect().Status(http.StatusOK).
		Body().Contains("xiaoyuanbao_orders_created_total")
	env := parse(t, e.GET("/api/stats").Expect().Status(http.StatusOK).Body().Raw())
	assert.True(t, env.Success)
	e.GET("/api/health").Expect().Status(http.StatusOK)
}
