package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	hits, misses, infra int
}

func (r *countingRecorder) RecordCache(hit bool) {
	if hit {
		r.hits++
		return
	}
	r.misses++
}

func (r *countingRecorder) RecordInfraError(string) { r.infra++ }

type brokenStore struct{}

var errDown = errors.New("redis down")

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errDown }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errDown
}
func (brokenStore) Del(context.Context, ...string) error { return errDown }

type payload struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func TestGetOrSetHitAndMiss(t *testing.T) {
	rec := &countingRecorder{}
	c := New(NewMemoryStore(), nil, rec)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (payload, error) {
		loads++
		return payload{Name: "书", N: loads}, nil
	}

	v, err := GetOrSet(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "书", N: 1}, v)

	v, err = GetOrSet(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, v.N)
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.misses)

	require.NoError(t, c.Invalidate(ctx, "k"))
	v, err = GetOrSet(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, v.N)
}

func TestGetOrSetExpires(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	c := New(store, nil, nil)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (int, error) {
		loads++
		return loads, nil
	}

	_, _ = GetOrSet(ctx, c, "k", time.Minute, load)
	now = now.Add(59 * time.Second)
	v, _ := GetOrSet(ctx, c, "k", time.Minute, load)
	assert.Equal(t, 1, v)

	now = now.Add(time.Second)
	v, _ = GetOrSet(ctx, c, "k", time.Minute, load)
	assert.Equal(t, 2, v)
}

func TestGetOrSetFallsBackWhenStoreFails(t *testing.T) {
	rec := &countingRecorder{}
	c := New(brokenStore{}, nil, rec)

	v, err := GetOrSet(context.Background(), c, "k", time.Minute, func(context.Context) (string, error) {
		return "from-db", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "from-db", v)
	assert.Equal(t, 2, rec.infra)

	assert.ErrorIs(t, c.Invalidate(context.Background(), "k"), errDown)
}

func TestGetOrSetDropsCorruptEntry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", []byte("{not json"), 0))
	c := New(store, nil, nil)

	v, err := GetOrSet(ctx, c, "k", time.Minute, func(context.Context) (payload, error) {
		return payload{Name: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v.Name)

	raw, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"ok","n":0}`, string(raw))
}

func TestGetOrSetDoesNotCacheLoadError(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, nil, nil)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := GetOrSet(ctx, c, "k", time.Minute, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	_, ok, _ := store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestItemKey(t *testing.T) {
	assert.Equal(t, "item:01ABC", ItemKey("01ABC"))
}
