package cache

import (
	"context"
	"time"

	"github.com/segyhp/coop-engine/internal/config"

	"github.com/redis/go-redis/v9"
)

// OpenRedis connects and pings Redis
func OpenRedis(cfg config.RedisConfig) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}
