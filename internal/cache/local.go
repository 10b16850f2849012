package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Local is an in-process stand-in for the Redis chart memo. It answers with the
// same command types as *redis.Client so callers need not tell them apart.
type Local struct {
	items *gocache.Cache
}

func NewLocal(cleanupInterval time.Duration) *Local {
	return &Local{items: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (l *Local) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	l.items.Set(key, value, expiration)
	return redis.NewStatusResult("OK", nil)
}

func (l *Local) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := l.items.Get(key)
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	s, ok := v.(string)
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(s, nil)
}
