package service

import (
	"context"
	"errors"
	"fmt"

	"eventbook/internal/cache"
	"eventbook/internal/model"
	"eventbook/internal/repository"
	apperrors "eventbook/pkg/app_errors"
	"eventbook/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventService 活動目錄；座位數只在建立時初始化，之後交給訂位帳本
type EventService interface {
	List(ctx context.Context) ([]*model.Event, error)
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	UpdateByEventID(ctx context.Context, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error)
	// GetAvailability 讀取座位快照，先查快取再回資料庫
	GetAvailability(ctx context.Context, eventID uuid.UUID) (model.EventAvailability, error)
}

type EventServiceImpl struct {
	repo         repository.EventRepository
	availability cache.EventAvailabilityCache
	validate     *validator.Validate
}

func NewEventService(repo repository.EventRepository, availability cache.EventAvailabilityCache) EventService {
	return &EventServiceImpl{
		repo:         repo,
		availability: availability,
		validate:     validator.New(),
	}
}

func (s *EventServiceImpl) List(ctx context.Context) ([]*model.Event, error) {
	return s.repo.List(ctx)
}

func (s *EventServiceImpl) GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	return s.repo.FindByID(ctx, eventID)
}

func (s *EventServiceImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.AvailableSeats = event.TotalSeats
	event.Date = event.Date.UTC()

	if err := s.validate.Struct(event); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	return s.repo.Create(ctx, event)
}

func (s *EventServiceImpl) UpdateByEventID(ctx context.Context, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	if err := validateUpdateParams(params); err != nil {
		return nil, err
	}

	event, err := s.repo.Update(ctx, eventID, params)
	if err != nil {
		return nil, err
	}

	if err := s.availability.Invalidate(ctx, eventID); err != nil {
		logger.WithComponent("catalog").Warn("failed to invalidate availability cache",
			zap.String("event_id", eventID.String()),
			zap.Error(err),
		)
	}
	return event, nil
}

func validateUpdateParams(params model.UpdateEventParams) error {
	switch {
	case params.Name != nil && (*params.Name == "" || len(*params.Name) > 200):
		return fmt.Errorf("%w: name must be 1-200 characters", apperrors.ErrInvalidInput)
	case params.TotalSeats != nil && *params.TotalSeats < 1:
		return fmt.Errorf("%w: total_seats must be at least 1", apperrors.ErrInvalidInput)
	case params.Price != nil && *params.Price < 0:
		return fmt.Errorf("%w: price must not be negative", apperrors.ErrInvalidInput)
	}
	return nil
}

func (s *EventServiceImpl) GetAvailability(ctx context.Context, eventID uuid.UUID) (model.EventAvailability, error) {
	log := logger.WithComponent("catalog").With(zap.String("event_id", eventID.String()))

	cached, err := s.availability.Get(ctx, eventID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn("availability cache read failed, falling back to database", zap.Error(err))
	}

	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return model.EventAvailability{}, err
	}

	availability := model.EventAvailability{
		EventID:        event.ID,
		TotalSeats:     event.TotalSeats,
		AvailableSeats: event.AvailableSeats,
		Price:          event.Price,
	}
	if err := s.availability.Set(ctx, availability); err != nil {
		log.Warn("failed to populate availability cache", zap.Error(err))
	}
	return availability, nil
}
