package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"eventbook/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss 快取中沒有該活動
var ErrCacheMiss = errors.New("cache miss")

// EventAvailabilityCache 活動座位快照的讀取快取。
// 只服務「立即訂位」按鈕等顯示用途，訂位交易永遠讀資料庫
type EventAvailabilityCache interface {
	// 讀取：回傳快照，不存在時回傳 ErrCacheMiss
	Get(ctx context.Context, eventID uuid.UUID) (model.EventAvailability, error)
	// 寫入：寫入快照並設定 TTL
	Set(ctx context.Context, availability model.EventAvailability) error
	// 失效：交易提交後刪除快照
	Invalidate(ctx context.Context, eventID uuid.UUID) error
}

type RedisEventAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisEventAvailabilityCache(client *redis.Client, ttl time.Duration) EventAvailabilityCache {
	return &RedisEventAvailabilityCache{
		client: client,
		ttl:    ttl,
	}
}

// 快照 key
func (c *RedisEventAvailabilityCache) getKey(eventID uuid.UUID) string {
	return fmt.Sprintf("event:%s:availability", eventID)
}

func (c *RedisEventAvailabilityCache) Get(ctx context.Context, eventID uuid.UUID) (model.EventAvailability, error) {
	result, err := c.client.HGetAll(ctx, c.getKey(eventID)).Result()
	if err != nil {
		return model.EventAvailability{}, err
	}

	// 檢查 key 是否存在
	if len(result) == 0 {
		return model.EventAvailability{}, ErrCacheMiss
	}

	available, err := strconv.Atoi(result["available"])
	if err != nil {
		return model.EventAvailability{}, fmt.Errorf("invalid available: %w", err)
	}

	total, err := strconv.Atoi(result["total"])
	if err != nil {
		return model.EventAvailability{}, fmt.Errorf("invalid total: %w", err)
	}

	price, err := strconv.ParseInt(result["price"], 10, 64)
	if err != nil {
		return model.EventAvailability{}, fmt.Errorf("invalid price: %w", err)
	}

	return model.EventAvailability{
		EventID:        eventID,
		TotalSeats:     total,
		AvailableSeats: available,
		Price:          price,
	}, nil
}

func (c *RedisEventAvailabilityCache) Set(ctx context.Context, availability model.EventAvailability) error {
	key := c.getKey(availability.EventID)

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"available": availability.AvailableSeats,
		"total":     availability.TotalSeats,
		"price":     availability.Price,
	})
	pipe.Expire(ctx, key, c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisEventAvailabilityCache) Invalidate(ctx context.Context, eventID uuid.UUID) error {
	return c.client.Del(ctx, c.getKey(eventID)).Err()
}

// NoopEventAvailabilityCache 未設定 Redis 時使用，永遠 miss
type NoopEventAvailabilityCache struct{}

func (NoopEventAvailabilityCache) Get(ctx context.Context, eventID uuid.UUID) (model.EventAvailability, error) {
	return model.EventAvailability{}, ErrCacheMiss
}

func (NoopEventAvailabilityCache) Set(ctx context.Context, availability model.EventAvailability) error {
	return nil
}

func (NoopEventAvailabilityCache) Invalidate(ctx context.Context, eventID uuid.UUID) error {
	return nil
}
