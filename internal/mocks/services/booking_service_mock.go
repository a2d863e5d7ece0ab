package services

import (
	"context"

	"eventbook/internal/identity"
	"eventbook/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type BookingServiceMock struct {
	mock.Mock
}

func NewBookingServiceMock() *BookingServiceMock {
	return &BookingServiceMock{}
}

func (m *BookingServiceMock) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) CancelBooking(ctx context.Context, requester identity.User, bookingID uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, requester, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) GetBooking(ctx context.Context, requester identity.User, bookingID uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, requester, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) ListBookingsForUser(ctx context.Context, userID uuid.UUID) ([]*model.BookingWithEvent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.BookingWithEvent), args.Error(1)
}

func (m *BookingServiceMock) ListBookingsForEvent(ctx context.Context, requester identity.User, eventID uuid.UUID) ([]*model.Booking, error) {
	args := m.Called(ctx, requester, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) HasActiveBooking(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, eventID)
	return args.Bool(0), args.Error(1)
}
