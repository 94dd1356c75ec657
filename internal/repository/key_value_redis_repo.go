package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type redisKeyValueStore struct {
	client *redis.Client
	prefix string
}

// NewRedisKeyValueStore constructs a key-value store on Redis. Keys never expire.
func NewRedisKeyValueStore(client *redis.Client, prefix string) KeyValueStore {
	return &redisKeyValueStore{client: client, prefix: prefix}
}

func (s *redisKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *redisKeyValueStore) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *redisKeyValueStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}
