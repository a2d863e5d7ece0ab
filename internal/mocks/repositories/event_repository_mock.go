package repositories

import (
	"context"

	"eventbook/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type EventRepositoryMock struct {
	mock.Mock
}

func NewEventRepositoryMock() *EventRepositoryMock {
	return &EventRepositoryMock{}
}

func (m *EventRepositoryMock) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) List(ctx context.Context) ([]*model.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) Update(ctx context.Context, id uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Event, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) DecrementSeats(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error {
	args := m.Called(ctx, tx, id, quantity)
	return args.Error(0)
}

func (m *EventRepositoryMock) IncrementSeats(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error {
	args := m.Called(ctx, tx, id, quantity)
	return args.Error(0)
}
