package cache

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Client is nil when Redis is not configured or unreachable; callers treat that
// as "no chart cache".
var Client *redis.Client

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects the chart cache. Failures only disable caching.
func InitRedis(ctx context.Context) {
	addr := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if addr == "" {
		log.Println("REDIS_URL not set, chart cache disabled")
		return
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			log.Printf("failed to parse REDIS_URL, chart cache disabled: %v", err)
			return
		}
		opts = parsed
	}

	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		log.Printf("failed to connect to Redis addr=%s, chart cache disabled: %v", opts.Addr, err)
		_ = client.Close()
		return
	}
	Client = client
	log.Println("Connected to Redis")
}

// Ping reports whether the cache is reachable. It is used as a health check.
func Ping(ctx context.Context) error {
	if Client == nil {
		return errors.New("redis not connected")
	}
	return pingRedis(ctx, Client)
}

func Close() {
	if Client != nil {
		_ = Client.Close()
		Client = nil
	}
}
