package usage

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis hash holding the counter.
const DefaultKey = "leadagent:usage"

// RedisStore persists usage in a Redis hash so restarts keep the daily count.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisClient builds a go-redis client from a redis:// or rediss:// URL.
func NewRedisClient(redisURL string, tlsInsecure bool) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if tlsInsecure {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key, ttl: 48 * time.Hour}
}

func (s *RedisStore) Load(ctx context.Context) (Stats, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Stats{}, nil
		}
		return Stats{}, fmt.Errorf("load usage: %w", err)
	}

	stats := Stats{Date: values["date"]}
	if raw := values["calls"]; raw != "" {
		calls, err := strconv.Atoi(raw)
		if err != nil {
			return Stats{}, fmt.Errorf("parse usage calls %q: %w", raw, err)
		}
		stats.Calls = calls
	}
	return stats, nil
}

func (s *RedisStore) Save(ctx context.Context, stats Stats) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key, "date", stats.Date, "calls", stats.Calls)
	pipe.Expire(ctx, s.key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save usage: %w", err)
	}
	return nil
}
