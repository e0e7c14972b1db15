package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps slots as plain Redis strings under a namespace.
// Keys are stored as "<namespace>:<key>".
type RedisStorage struct {
	rdb       *redis.Client
	namespace string
}

// NewRedisStorage connects lazily; call Ping to check connectivity.
func NewRedisStorage(opts *redis.Options, namespace string) (*RedisStorage, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	return &RedisStorage{
		rdb:       redis.NewClient(opts),
		namespace: namespace,
	}, nil
}

func (s *RedisStorage) Close() error {
	return s.rdb.Close()
}

func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStorage) fullKey(key string) string {
	return s.namespace + ":" + key
}

func (s *RedisStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.fullKey(key)).Result()
	switch {
	case err == nil:
		return v, true, nil
	case errors.Is(err, redis.Nil):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("get item %q: %w", key, err)
	}
}

func (s *RedisStorage) SetItem(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.fullKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set item %q: %w", key, err)
	}
	return nil
}

func (s *RedisStorage) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	strip := s.namespace + ":"
	iter := s.rdb.Scan(ctx, 0, s.fullKey(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), strip))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}
