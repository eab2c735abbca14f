package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"drawparty-backend/internal/model"
)

const resultTTL = 24 * time.Hour

// RedisClient wraps the Redis client for result-status caching.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects and pings.
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[Redis] Connected to %s", addr)
	return &RedisClient{client: client}, nil
}

func resultKey(roomID string) string {
	return "room:" + roomID + ":result"
}

// SetResult caches the full result record for polling.
func (r *RedisClient) SetResult(ctx context.Context, result *model.RoomResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, resultKey(result.RoomID), data, resultTTL).Err(); err != nil {
		log.Printf("[Redis] Failed to cache result for room %s: %v", result.RoomID, err)
		return err
	}
	return nil
}

// GetResult returns the cached record, or nil on miss.
func (r *RedisClient) GetResult(ctx context.Context, roomID string) (*model.RoomResult, error) {
	data, err := r.client.Get(ctx, resultKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result model.RoomResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InvalidateResult drops the cached record after a pipeline write.
func (r *RedisClient) InvalidateResult(ctx context.Context, roomID string) {
	if err := r.client.Del(ctx, resultKey(roomID)).Err(); err != nil {
		log.Printf("[Redis] Failed to invalidate result for room %s: %v", roomID, err)
	}
}

// Close releases the connection pool.
func (r *RedisClient) Close() error {
	return r.client.Close()
}
