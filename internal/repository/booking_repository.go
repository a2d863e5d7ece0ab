package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventbook/internal/database"
	"eventbook/internal/model"
	apperrors "eventbook/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*model.BookingWithEvent, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) ([]*model.Booking, error)
	ExistsActive(ctx context.Context, userID, eventID uuid.UUID) (bool, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error)
	FindByIdempotencyKey(ctx context.Context, tx pgx.Tx, userID uuid.UUID, key string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.BookingStatus) (*model.Booking, error)
}

type BookingRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &BookingRepositoryImpl{
		pool: pool,
	}
}

const bookingColumns = `id, event_id, user_id, tickets, total_price, booking_code, status,
		payment_ref, idempotency_key, created_at, updated_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.EventID,
		&booking.UserID,
		&booking.Tickets,
		&booking.TotalPrice,
		&booking.BookingCode,
		&booking.Status,
		&booking.PaymentRef,
		&booking.IdempotencyKey,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func collectBookings(rows pgx.Rows) ([]*model.Booking, error) {
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// Create 寫入訂位。booking_code 衝突用 ON CONFLICT DO NOTHING 吸收，
// 回傳 ErrBookingCodeTaken 讓呼叫端換碼重試而不會中斷整個交易；
// (user_id, event_id) 的衝突則是 ErrDuplicateBooking
func (r *BookingRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error) {
	query := `
		INSERT INTO bookings (
			id, event_id, user_id, tickets, total_price, booking_code, status, payment_ref, idempotency_key
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT ` + database.ConstraintBookingCode + ` DO NOTHING
		RETURNING ` + bookingColumns

	created, err := scanBooking(tx.QueryRow(ctx, query,
		booking.ID, booking.EventID, booking.UserID, booking.Tickets, booking.TotalPrice,
		booking.BookingCode, booking.Status, booking.PaymentRef, booking.IdempotencyKey,
	))

	switch {
	case err == nil:
		return created, nil
	case errors.Is(err, apperrors.ErrBookingNotFound):
		return nil, apperrors.ErrBookingCodeTaken
	case database.IsUniqueViolation(err, database.ConstraintActiveUserEvent):
		return nil, apperrors.ErrDuplicateBooking
	case database.IsUniqueViolation(err, database.ConstraintUserIdempotencyKey):
		return nil, apperrors.ErrIdempotencyConflict
	default:
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
}

func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
	`
	return scanBooking(r.pool.QueryRow(ctx, query, id))
}

// FindByUserID 使用者的訂位連同活動名稱與日期，一次 JOIN 查回
func (r *BookingRepositoryImpl) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*model.BookingWithEvent, error) {
	query := `
		SELECT b.id, b.event_id, b.user_id, b.tickets, b.total_price, b.booking_code, b.status,
			b.payment_ref, b.idempotency_key, b.created_at, b.updated_at,
			e.name, e.date
		FROM bookings b
		JOIN events e ON e.id = b.event_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC, b.id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*model.BookingWithEvent, 0)
	for rows.Next() {
		var b model.BookingWithEvent
		err := rows.Scan(
			&b.ID,
			&b.EventID,
			&b.UserID,
			&b.Tickets,
			&b.TotalPrice,
			&b.BookingCode,
			&b.Status,
			&b.PaymentRef,
			&b.IdempotencyKey,
			&b.CreatedAt,
			&b.UpdatedAt,
			&b.EventName,
			&b.EventDate,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *BookingRepositoryImpl) FindByEventID(ctx context.Context, eventID uuid.UUID) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE event_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *BookingRepositoryImpl) ExistsActive(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND event_id = $2 AND status = $3
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, eventID, model.BookingStatusConfirmed).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *BookingRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`
	return scanBooking(tx.QueryRow(ctx, query, id))
}

func (r *BookingRepositoryImpl) FindByIdempotencyKey(ctx context.Context, tx pgx.Tx, userID uuid.UUID, key string) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND idempotency_key = $2
	`
	return scanBooking(tx.QueryRow(ctx, query, userID, key))
}

// UpdateStatus 只有目前狀態等於 from 時才會更新，避免重複轉換
func (r *BookingRepositoryImpl) UpdateStatus(
	ctx context.Context,
	tx pgx.Tx,
	id uuid.UUID,
	from, to model.BookingStatus,
) (*model.Booking, error) {
	if !from.CanTransitionTo(to) {
		return nil, apperrors.ErrBookingNotActive
	}

	query := `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + bookingColumns

	booking, err := scanBooking(tx.QueryRow(ctx, query, to, time.Now().UTC(), id, from))
	if err != nil {
		if errors.Is(err, apperrors.ErrBookingNotFound) {
			return nil, apperrors.ErrBookingNotActive
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	return booking, nil
}
