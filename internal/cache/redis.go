package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// RedisCache shares fetched series between processes. Keys carry no TTL.
type RedisCache struct {
	client *goredis.Client
}

// NewRedisCache connects to addr and verifies the connection with a PING.
func NewRedisCache(addr string, db int) (*RedisCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Printf("[INFO] redis cache connected: %s db=%d", addr, db)
	return &RedisCache{client: client}, nil
}

func redisKey(key Key) string {
	return "bars:" + key.String()
}

func (r *RedisCache) Get(ctx context.Context, key Key) (*model.BarSeries, bool, error) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	series, err := decodeBars(key, data)
	if err != nil {
		return nil, false, err
	}
	return series, true, nil
}

func (r *RedisCache) Put(ctx context.Context, key Key, series *model.BarSeries) error {
	payload, err := encodeBars(series)
	if err != nil {
		return fmt.Errorf("encode bars %s: %w", key, err)
	}
	if err := r.client.Set(ctx, redisKey(key), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	log.Println("[INFO] closing redis cache")
	return r.client.Close()
}
