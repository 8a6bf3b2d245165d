package kvstore

import (
	"context"
	"errors"

	"makono-backend/internal/domain/kv"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each snapshot as a plain string value with no expiry.
type RedisStore struct{ rdb *redis.Client }

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	return b, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

// SetMany writes every entry inside MULTI/EXEC.
func (s *RedisStore) SetMany(ctx context.Context, entries map[string][]byte) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for k, v := range entries {
			p.Set(ctx, k, v, 0)
		}
		return nil
	})
	return err
}
