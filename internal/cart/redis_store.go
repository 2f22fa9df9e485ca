package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mercantile/storefront/pkg/logger"
	pkgredis "github.com/mercantile/storefront/pkg/redis"
)

// RedisKV is the slice of pkg/redis.Client the cart store uses.
type RedisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(sessionKey string) string
}

// RedisStore keeps each ledger as a JSON string under sf:cart:<session> with a sliding TTL.
type RedisStore struct {
	kv   RedisKV
	ttl  time.Duration
	logg *logger.Logger
}

func NewRedisStore(kv RedisKV, ttl time.Duration, logg *logger.Logger) (*RedisStore, error) {
	if kv == nil {
		return nil, errors.New("redis client required for cart store")
	}
	if ttl < 0 {
		return nil, errors.New("cart ttl must be non-negative")
	}
	return &RedisStore{kv: kv, ttl: ttl, logg: logg}, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionKey string, state State) error {
	payload, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(sessionKey), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save cart to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, sessionKey string) (State, bool, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(sessionKey))
	if err != nil {
		if pkgredis.IsNil(err) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("load cart from redis: %w", err)
	}
	state, ok := decodeOrDiscard(ctx, s.logg, sessionKey, []byte(raw))
	return state, ok, nil
}
