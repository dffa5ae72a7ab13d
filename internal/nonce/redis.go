package nonce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "shopinstall:nonce:"

// redisCmds is the part of *redis.Client the backend uses.
type redisCmds interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// RedisBackend shares sessions between instances. Expiry is left to Redis key TTLs and the
// take is a single GETDEL.
type RedisBackend struct {
	rdb redisCmds
}

func NewRedisBackend(rdb redisCmds) *RedisBackend { return &RedisBackend{rdb: rdb} }

func (b *RedisBackend) Put(ctx context.Context, s Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := b.rdb.SetNX(ctx, redisKeyPrefix+s.Nonce, raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("nonce collision")
	}
	return nil
}

func (b *RedisBackend) Take(ctx context.Context, nonce string) (Session, bool, error) {
	raw, err := b.rdb.GetDel(ctx, redisKeyPrefix+nonce).Result()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.Nonce != nonce {
		return Session{}, false, nil
	}
	return s, true, nil
}
