package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type LedgerEventType string

const (
	BookingConfirmed LedgerEventType = "booking.confirmed"
	BookingCancelled LedgerEventType = "booking.cancelled"
)

// LedgerEvent 交易提交後發出，下游用來讓活動頁與「我的訂位」等視圖失效
type LedgerEvent struct {
	Type        LedgerEventType `json:"type"`
	BookingID   uuid.UUID       `json:"booking_id"`
	BookingCode string          `json:"booking_code"`
	EventID     uuid.UUID       `json:"event_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Tickets     int             `json:"tickets"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

type LedgerEventPublisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}

// MemoryPublisher 未設定 Redis 時使用，只保留在記憶體中
type MemoryPublisher struct {
	mu     sync.Mutex
	events []LedgerEvent
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(ctx context.Context, event LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Published 回傳目前為止發出的事件副本
func (p *MemoryPublisher) Published() []LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]LedgerEvent, len(p.events))
	copy(out, p.events)
	return out
}
