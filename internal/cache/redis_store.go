package cache

import (
	"context"
	"time"

	radix "github.com/mediocregopher/radix/v3"
)

// RedisStore 基于 radix 连接池
type RedisStore struct {
	client radix.Client
}

func NewRedisStore(client radix.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var body []byte
	mn := radix.MaybeNil{Rcv: &body}
	if err := s.client.Do(radix.Cmd(&mn, "GET", key)); err != nil {
		return nil, false, err
	}
	if mn.Nil {
		return nil, false, nil
	}
	return body, true, nil
}

func (s *RedisStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return s.client.Do(radix.FlatCmd(nil, "SET", key, val))
	}
	return s.client.Do(radix.FlatCmd(nil, "SET", key, val, "PX", ttl.Milliseconds()))
}

func (s *RedisStore) Del(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Do(radix.Cmd(nil, "DEL", keys...))
}
