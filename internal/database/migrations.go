package database

import (
	"context"
	"fmt"

	"eventbook/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// 約束名稱供 repository 判斷唯一約束衝突來源
const (
	ConstraintBookingCode        = "bookings_booking_code_key"
	ConstraintActiveUserEvent    = "bookings_active_user_event_idx"
	ConstraintUserIdempotencyKey = "bookings_user_idempotency_key_idx"
)

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log := logger.WithComponent("migrations")

	migrations := []string{
		createEventsTable,
		createBookingsTable,
		createActiveUserEventIndex,
		createUserIdempotencyKeyIndex,
		createBookingsEventIndex,
		createBookingsUserIndex,
	}

	for i, migration := range migrations {
		log.Debug("Running migration", zap.Int("step", i+1))
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Info("All migrations completed", zap.Int("count", len(migrations)))
	return nil
}

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id UUID PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    description TEXT,
    total_seats INTEGER NOT NULL CHECK (total_seats >= 1),
    available_seats INTEGER NOT NULL CHECK (available_seats >= 0),
    price BIGINT NOT NULL CHECK (price >= 0),
    date TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (available_seats <= total_seats)
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id UUID PRIMARY KEY,
    event_id UUID NOT NULL REFERENCES events(id),
    user_id UUID NOT NULL,
    tickets INTEGER NOT NULL CHECK (tickets >= 1),
    total_price BIGINT NOT NULL CHECK (total_price >= 0),
    booking_code CHAR(8) NOT NULL,
    status VARCHAR(20) NOT NULL CHECK (status IN ('confirmed', 'cancelled')),
    payment_ref VARCHAR(255) NOT NULL,
    idempotency_key VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT bookings_booking_code_key UNIQUE (booking_code)
);`

// 只限制 confirmed：取消後可以重新訂位
const createActiveUserEventIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS bookings_active_user_event_idx
    ON bookings (user_id, event_id)
    WHERE status = 'confirmed';`

const createUserIdempotencyKeyIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS bookings_user_idempotency_key_idx
    ON bookings (user_id, idempotency_key)
    WHERE idempotency_key IS NOT NULL;`

const createBookingsEventIndex = `
CREATE INDEX IF NOT EXISTS bookings_event_created_idx ON bookings (event_id, created_at DESC);`

const createBookingsUserIndex = `
CREATE INDEX IF NOT EXISTS bookings_user_created_idx ON bookings (user_id, created_at DESC);`
