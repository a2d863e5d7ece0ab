package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	StreamKey = "ledger:events"
	// 串流大約保留的訊息數，避免無限成長
	StreamMaxLen = 100000
)

type RedisStreamPublisher struct {
	client    *redis.Client
	streamKey string
}

func NewRedisStreamPublisher(client *redis.Client) LedgerEventPublisher {
	return &RedisStreamPublisher{
		client:    client,
		streamKey: StreamKey,
	}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, event LedgerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}
	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.streamKey,
		MaxLen: StreamMaxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"type":  string(event.Type),
			"event": string(payload),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}
