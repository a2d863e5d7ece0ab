package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventbook/internal/model"
	apperrors "eventbook/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	Update(ctx context.Context, id uuid.UUID, params model.UpdateEventParams) (*model.Event, error)

	// Transaction methods
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Event, error)
	DecrementSeats(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error
	IncrementSeats(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

const eventColumns = `id, name, description, total_seats, available_seats, price, date, created_at, updated_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var event model.Event
	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.TotalSeats,
		&event.AvailableSeats,
		&event.Price,
		&event.Date,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	query := `
		INSERT INTO events (id, name, description, total_seats, available_seats, price, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + eventColumns

	created, err := scanEvent(r.pool.QueryRow(ctx, query,
		event.ID, event.Name, event.Description,
		event.TotalSeats, event.AvailableSeats, event.Price, event.Date,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return created, nil
}

func (r *EventRepositoryImpl) List(ctx context.Context) ([]*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY date ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	return scanEvent(r.pool.QueryRow(ctx, query, id))
}

// Update 管理員編輯活動；變更 total_seats 時 available_seats 以相同差額調整，
// 在單一語句內完成，不會讓可用座位變成負數
func (r *EventRepositoryImpl) Update(ctx context.Context, id uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	if params.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argPos))
		args = append(args, *params.Name)
		argPos++
	}

	if params.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argPos))
		args = append(args, *params.Description)
		argPos++
	}

	if params.Price != nil {
		sets = append(sets, fmt.Sprintf("price = $%d", argPos))
		args = append(args, *params.Price)
		argPos++
	}

	if params.Date != nil {
		sets = append(sets, fmt.Sprintf("date = $%d", argPos))
		args = append(args, params.Date.UTC())
		argPos++
	}

	seatGuard := ""
	if params.TotalSeats != nil {
		sets = append(sets,
			fmt.Sprintf("total_seats = $%d", argPos),
			fmt.Sprintf("available_seats = available_seats + ($%d - total_seats)", argPos),
		)
		seatGuard = fmt.Sprintf(" AND available_seats + ($%d - total_seats) >= 0", argPos)
		args = append(args, *params.TotalSeats)
		argPos++
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	// add updated_at
	sets = append(sets, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	// add id
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE events
		SET %s
		WHERE id = $%d%s
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, seatGuard, eventColumns)

	event, err := scanEvent(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, apperrors.ErrEventNotFound) && seatGuard != "" {
		// 區分「活動不存在」與「座位數低於已售出」
		if _, findErr := r.FindByID(ctx, id); findErr == nil {
			return nil, apperrors.ErrSeatsBelowBooked
		}
	}
	if err != nil {
		return nil, err
	}

	return event, nil
}

func (r *EventRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
		FOR UPDATE
	`
	return scanEvent(tx.QueryRow(ctx, query, id))
}

func (r *EventRepositoryImpl) DecrementSeats(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error {
	query := `
		UPDATE events
		SET available_seats = available_seats - $1, updated_at = $2
		WHERE id = $3 AND available_seats >= $1
	`

	result, err := tx.Exec(ctx, query, quantity, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInsufficientSeats
	}

	return nil
}

// IncrementSeats 退回座位；超過 total_seats 代表帳目已損壞，回傳 ErrInvariantViolation 而不是截斷
func (r *EventRepositoryImpl) IncrementSeats(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error {
	query := `
		UPDATE events
		SET available_seats = available_seats + $1, updated_at = $2
		WHERE id = $3 AND available_seats + $1 <= total_seats
	`

	result, err := tx.Exec(ctx, query, quantity, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInvariantViolation
	}

	return nil
}
