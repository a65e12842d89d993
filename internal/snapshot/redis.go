package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	redisKeyPrefix = "sss:snapshot:"
	redisIndexKey  = "sss:snapshots"
)

// RedisStore keeps one JSON value per mint and a set of known mints.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, mint string) (*Snapshot, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+mint).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", mint, err)
	}
	return &snap, nil
}

func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+snap.Mint, data, 0)
	pipe.SAdd(ctx, redisIndexKey, snap.Mint)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save snapshot: %w", err)
	}
	return nil
}

// Mints lists every mint with a stored snapshot.
func (s *RedisStore) Mints(ctx context.Context) ([]string, error) {
	mints, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list snapshots: %w", err)
	}
	return mints, nil
}
