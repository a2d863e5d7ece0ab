package model

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus 訂位狀態類型
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// IsValid 驗證狀態是否有效
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	transitions := map[BookingStatus][]BookingStatus{
		BookingStatusConfirmed: {BookingStatusCancelled},
		BookingStatusCancelled: {}, // 終止狀態
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// Booking 訂位模型，建立後只有 Status 會變動，永不實體刪除
type Booking struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	EventID        uuid.UUID     `json:"event_id" db:"event_id"`
	UserID         uuid.UUID     `json:"user_id" db:"user_id"`
	Tickets        int           `json:"tickets" db:"tickets"`
	TotalPrice     int64         `json:"total_price" db:"total_price"`
	BookingCode    string        `json:"booking_code" db:"booking_code"`
	Status         BookingStatus `json:"status" db:"status"`
	PaymentRef     string        `json:"payment_ref" db:"payment_ref"`
	IdempotencyKey *string       `json:"-" db:"idempotency_key"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// IsActive 檢查訂位是否仍佔用座位
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusConfirmed
}

// BookingWithEvent 「我的訂位」列表用，附帶活動名稱與日期
type BookingWithEvent struct {
	Booking
	EventName string    `json:"event_name" db:"event_name"`
	EventDate time.Time `json:"event_date" db:"event_date"`
}

// CreateBookingRequest 建立訂位請求；PaymentRef 必須是已驗證的付款參考
type CreateBookingRequest struct {
	UserID         uuid.UUID
	EventID        uuid.UUID
	Tickets        int
	PaymentRef     string
	IdempotencyKey string
}

// BookingResponse 訂位響應
type BookingResponse struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"event_id"`
	Tickets     int       `json:"tickets"`
	TotalPrice  int64     `json:"total_price"`
	BookingCode string    `json:"booking_code"`
	Status      string    `json:"status"`
	EventName   string    `json:"event_name,omitempty"`
	EventDate   string    `json:"event_date,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

func NewBookingResponse(b *Booking) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		EventID:     b.EventID,
		Tickets:     b.Tickets,
		TotalPrice:  b.TotalPrice,
		BookingCode: b.BookingCode,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func NewBookingWithEventResponse(b *BookingWithEvent) BookingResponse {
	resp := NewBookingResponse(&b.Booking)
	resp.EventName = b.EventName
	resp.EventDate = b.EventDate.UTC().Format(time.RFC3339)
	return resp
}
