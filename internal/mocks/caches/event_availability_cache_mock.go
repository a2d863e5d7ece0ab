package caches

import (
	"context"

	"eventbook/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type EventAvailabilityCacheMock struct {
	mock.Mock
}

func NewEventAvailabilityCacheMock() *EventAvailabilityCacheMock {
	return &EventAvailabilityCacheMock{}
}

func (m *EventAvailabilityCacheMock) Get(ctx context.Context, eventID uuid.UUID) (model.EventAvailability, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(model.EventAvailability), args.Error(1)
}

func (m *EventAvailabilityCacheMock) Set(ctx context.Context, availability model.EventAvailability) error {
	args := m.Called(ctx, availability)
	return args.Error(0)
}

func (m *EventAvailabilityCacheMock) Invalidate(ctx context.Context, eventID uuid.UUID) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}
