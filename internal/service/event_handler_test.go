package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/cache"
	"github.com/example/xiaoyuanbao/internal/datamodels/order"
)

func TestOrderEventHandler(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	mon := NewMonitor()
	h := NewOrderEventHandler(cache.New(store, zap.NewNop(), mon), mon, zap.NewNop())

	require.NoError(t, store.Set(ctx, cache.ItemKey("it-1"), []byte(`{}`), time.Minute))
	body, err := json.Marshal(order.Event{
		ID: "ev-1", Type: order.EventStatusChanged, OrderID: "o-1", ItemID: "it-1",
		From: order.StatusPending, To: order.StatusCancelled,
	})
	require.NoError(t, err)

	require.NoError(t, h.Handle(ctx, body))
	_, ok, _ := store.Get(ctx, cache.ItemKey("it-1"))
	assert.False(t, ok)
	assert.Equal(t, float64(1), testutil.ToFloat64(mon.eventsConsumed.WithLabelValues("ok")))

	assert.ErrorIs(t, h.Handle(ctx, []byte("not json")), ErrMalformedEvent)
	assert.ErrorIs(t, h.Handle(ctx, []byte(`{"orderId":"o-1"}`)), ErrMalformedEvent)
	assert.Equal(t, float64(2), testutil.ToFloat64(mon.eventsConsumed.WithLabelValues("dropped")))
}

func TestEventRoutingKeys(t *testing.T) {
	assert.Equal(t, "order.created", order.Event{Type: order.EventCreated, To: order.StatusPending}.RoutingKey())
	assert.Equal(t, "order.status.shipping", order.Event{Type: order.EventStatusChanged, To: order.StatusShipping}.RoutingKey())
}
