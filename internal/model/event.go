package model

import (
	"time"

	"github.com/google/uuid"
)

// Event 活動模型；AvailableSeats 只能由訂位帳本在交易內異動
type Event struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name" validate:"required,max=200"`
	Description    *string   `json:"description,omitempty" db:"description"`
	TotalSeats     int       `json:"total_seats" db:"total_seats" validate:"gte=1"`
	AvailableSeats int       `json:"available_seats" db:"available_seats" validate:"gte=0,ltefield=TotalSeats"`
	Price          int64     `json:"price" db:"price" validate:"gte=0"`
	Date           time.Time `json:"date" db:"date" validate:"required"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// BookedSeats 已確認訂位所佔用的座位數
func (e *Event) BookedSeats() int {
	return e.TotalSeats - e.AvailableSeats
}

// IsSoldOut 檢查是否已無座位
func (e *Event) IsSoldOut() bool {
	return e.AvailableSeats <= 0
}

type UpdateEventParams struct {
	Name        *string
	Description *string
	TotalSeats  *int
	Price       *int64
	Date        *time.Time
}

// EventAvailability 活動頁「立即訂位」按鈕需要的快照
type EventAvailability struct {
	EventID        uuid.UUID `json:"event_id"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	Price          int64     `json:"price"`
}
