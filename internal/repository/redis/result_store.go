package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"stats-service/internal/entity"
)

// ResultStore keeps each result under <prefix>:<id>. Keys carry no TTL.
type ResultStore struct {
	rdb    *redis.Client
	prefix string
}

func NewResultStore(rdb *redis.Client, prefix string) *ResultStore {
	return &ResultStore{rdb: rdb, prefix: prefix}
}

// NewClient connects with a redis:// URL when given, the plain address otherwise.
func NewClient(ctx context.Context, addr, url string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if url != "" {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, err
		}
		opts = parsed
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (s *ResultStore) key(id entity.JobID) string {
	return s.prefix + ":" + id.String()
}

func (s *ResultStore) Put(ctx context.Context, id entity.JobID, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result %d: %w", id, err)
	}
	if err := s.rdb.Set(ctx, s.key(id), data, 0).Err(); err != nil {
		return fmt.Errorf("put result %d: %w", id, err)
	}
	return nil
}

func (s *ResultStore) Get(ctx context.Context, id entity.JobID) (json.RawMessage, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("get result %d: %w", id, err)
	}
	return json.RawMessage(data), nil
}
