package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"bandar/pkg/model"
)

// RedisStore keeps fetched candles in Redis as JSON
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to addr and verifies the connection
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	log.Printf("[CACHE] connected to redis at %s", addr)
	return &RedisStore{client: client, prefix: "bandar:"}, nil
}

// Get returns cached candles; a missing key is a miss, not an error
func (r *RedisStore) Get(ctx context.Context, key string) ([]model.Candle, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var candles []model.Candle
	if err := json.Unmarshal(val, &candles); err != nil {
		return nil, false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return candles, true, nil
}

// Set stores candles with expiration; ttl <= 0 keeps them until evicted
func (r *RedisStore) Set(ctx context.Context, key string, candles []model.Candle, ttl time.Duration) error {
	data, err := json.Marshal(candles)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.prefix+key, data, ttl).Err()
}

// Delete removes a key
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
