package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	pkgredis "github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/redis"
)

type redisStore struct {
	client *pkgredis.Client
}

// NewRedisStore keeps results in Redis under the search:pair: prefix.
func NewRedisStore(client *pkgredis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(data), true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl)
}

func (s *redisStore) Flush(ctx context.Context) (int64, error) {
	return s.client.FlushByPattern(ctx, keyPrefix+"*")
}

// memoryStore is a size-bounded LRU with a single TTL for every entry. The
// per-call ttl is ignored.
type memoryStore struct {
	lru *expirable.LRU[string, []byte]
}

func NewMemoryStore(size int, ttl time.Duration) Store {
	return &memoryStore{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.lru.Get(key)
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.lru.Add(key, value)
	return nil
}

func (s *memoryStore) Flush(context.Context) (int64, error) {
	n := int64(s.lru.Len())
	s.lru.Purge()
	return n, nil
}
