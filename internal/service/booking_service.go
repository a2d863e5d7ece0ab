package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventbook/internal/cache"
	"eventbook/internal/database"
	"eventbook/internal/identity"
	"eventbook/internal/model"
	"eventbook/internal/queue"
	"eventbook/internal/repository"
	apperrors "eventbook/pkg/app_errors"
	"eventbook/pkg/logger"
	"eventbook/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	DefaultCancellationWindow = 24 * time.Hour
	DefaultCodeAttempts       = 5

	afterCommitTimeout = 2 * time.Second
)

// BookingService 訂位帳本：負責座位數與訂位紀錄的一致性
type BookingService interface {
	// 建立訂位(單一交易：鎖定活動、扣座位、寫入訂位)
	CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error)
	// 取消訂位(單一交易：退回座位、狀態改為 cancelled)
	CancelBooking(ctx context.Context, requester identity.User, bookingID uuid.UUID) (*model.Booking, error)
	GetBooking(ctx context.Context, requester identity.User, bookingID uuid.UUID) (*model.Booking, error)
	ListBookingsForUser(ctx context.Context, userID uuid.UUID) ([]*model.BookingWithEvent, error)
	ListBookingsForEvent(ctx context.Context, requester identity.User, eventID uuid.UUID) ([]*model.Booking, error)
	HasActiveBooking(ctx context.Context, userID, eventID uuid.UUID) (bool, error)
}

type BookingServiceImpl struct {
	db                 database.TxBeginner
	repository         repository.BookingRepository
	eventRepository    repository.EventRepository
	availability       cache.EventAvailabilityCache
	publisher          queue.LedgerEventPublisher
	generateCode       CodeGenerator
	codeAttempts       int
	cancellationWindow time.Duration
	now                func() time.Time
}

type BookingServiceOption func(*BookingServiceImpl)

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

func WithCodeGenerator(gen CodeGenerator) BookingServiceOption {
	return func(s *BookingServiceImpl) {
		if gen != nil {
			s.generateCode = gen
		}
	}
}

func WithCodeAttempts(n int) BookingServiceOption {
	return func(s *BookingServiceImpl) {
		if n > 0 {
			s.codeAttempts = n
		}
	}
}

func WithCancellationWindow(d time.Duration) BookingServiceOption {
	return func(s *BookingServiceImpl) {
		if d > 0 {
			s.cancellationWindow = d
		}
	}
}

func NewBookingService(
	db database.TxBeginner,
	bookingRepository repository.BookingRepository,
	eventRepository repository.EventRepository,
	availability cache.EventAvailabilityCache,
	publisher queue.LedgerEventPublisher,
	opts ...BookingServiceOption,
) BookingService {
	s := &BookingServiceImpl{
		db:                 db,
		repository:         bookingRepository,
		eventRepository:    eventRepository,
		availability:       availability,
		publisher:          publisher,
		generateCode:       GenerateBookingCode,
		codeAttempts:       DefaultCodeAttempts,
		cancellationWindow: DefaultCancellationWindow,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingServiceImpl) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	if req.Tickets < 1 || req.UserID == uuid.Nil || req.EventID == uuid.Nil {
		return nil, apperrors.ErrInvalidInput
	}
	if req.PaymentRef == "" {
		return nil, apperrors.ErrPaymentNotVerified
	}

	booking, replayed, err := s.createInTx(ctx, req)
	if err != nil {
		metrics.BookingsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, database.WrapTxError(err)
	}

	if replayed {
		metrics.BookingsTotal.WithLabelValues(metrics.OutcomeReplay).Inc()
		return booking, nil
	}

	metrics.BookingsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.afterCommit(ctx, queue.BookingConfirmed, booking)
	return booking, nil
}

func (s *BookingServiceImpl) createInTx(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, bool, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	// 1. 鎖定活動列，同一活動的訂位與取消在此序列化
	event, err := s.eventRepository.FindByIDWithLock(ctx, tx, req.EventID)
	if err != nil {
		return nil, false, err
	}

	// 同一個 idempotency key 重送時回傳原訂位，不再動座位
	if req.IdempotencyKey != "" {
		existing, err := s.repository.FindByIdempotencyKey(ctx, tx, req.UserID, req.IdempotencyKey)
		switch {
		case err == nil:
			if existing.EventID != req.EventID || existing.Tickets != req.Tickets {
				return nil, false, apperrors.ErrIdempotencyConflict
			}
			return existing, true, nil
		case !errors.Is(err, apperrors.ErrBookingNotFound):
			return nil, false, err
		}
	}

	// 2. 檢查座位
	if event.AvailableSeats < req.Tickets {
		return nil, false, apperrors.ErrInsufficientSeats
	}

	// 3. 扣座位
	if err := s.eventRepository.DecrementSeats(ctx, tx, event.ID, req.Tickets); err != nil {
		return nil, false, err
	}

	// 4. 計算總價，只在建立時計算一次
	booking := &model.Booking{
		ID:         uuid.New(),
		EventID:    event.ID,
		UserID:     req.UserID,
		Tickets:    req.Tickets,
		TotalPrice: int64(req.Tickets) * event.Price,
		Status:     model.BookingStatusConfirmed,
		PaymentRef: req.PaymentRef,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		booking.IdempotencyKey = &key
	}

	// 5~6. 產生訂位代碼並寫入
	created, err := s.insertWithUniqueCode(ctx, tx, booking)
	if err != nil {
		return nil, false, err
	}

	// 7. 提交
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	return created, false, nil
}

func (s *BookingServiceImpl) insertWithUniqueCode(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error) {
	for attempt := 1; attempt <= s.codeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, fmt.Errorf("generate booking code: %w", err)
		}
		booking.BookingCode = code

		created, err := s.repository.Create(ctx, tx, booking)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, apperrors.ErrBookingCodeTaken) {
			return nil, err
		}

		logger.WithComponent("ledger").Warn("booking code collision, regenerating",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.codeAttempts),
		)
	}
	return nil, apperrors.ErrCodeGenerationExhausted
}

func (s *BookingServiceImpl) CancelBooking(ctx context.Context, requester identity.User, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := s.cancelInTx(ctx, requester, bookingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvariantViolation) {
			metrics.InvariantViolations.Inc()
			logger.WithComponent("ledger").Error("seat ledger invariant violated on cancel",
				zap.String("booking_id", bookingID.String()),
				zap.Error(err),
			)
		}
		metrics.CancellationsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, database.WrapTxError(err)
	}

	metrics.CancellationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.afterCommit(ctx, queue.BookingCancelled, booking)
	return booking, nil
}

func (s *BookingServiceImpl) cancelInTx(ctx context.Context, requester identity.User, bookingID uuid.UUID) (*model.Booking, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	booking, err := s.repository.FindByIDWithLock(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != requester.ID && !requester.IsAdmin() {
		return nil, apperrors.ErrUnauthorized
	}

	if !booking.IsActive() {
		return nil, apperrors.ErrBookingNotActive
	}

	event, err := s.eventRepository.FindByIDWithLock(ctx, tx, booking.EventID)
	if err != nil {
		return nil, err
	}

	if event.Date.Sub(s.now()) < s.cancellationWindow {
		return nil, apperrors.ErrCancellationWindowClosed
	}

	// 1. 退回座位；超過總座位數代表先前已經出錯，不能截斷
	if event.AvailableSeats+booking.Tickets > event.TotalSeats {
		return nil, fmt.Errorf("%w: event %s available %d + refund %d exceeds total %d",
			apperrors.ErrInvariantViolation, event.ID, event.AvailableSeats, booking.Tickets, event.TotalSeats)
	}
	if err := s.eventRepository.IncrementSeats(ctx, tx, event.ID, booking.Tickets); err != nil {
		return nil, err
	}

	// 2. 更新狀態
	cancelled, err := s.repository.UpdateStatus(ctx, tx, booking.ID, model.BookingStatusConfirmed, model.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}

	// 3. 提交
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return cancelled, nil
}

func (s *BookingServiceImpl) GetBooking(ctx context.Context, requester identity.User, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := s.repository.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != requester.ID && !requester.IsAdmin() {
		return nil, apperrors.ErrUnauthorized
	}
	return booking, nil
}

func (s *BookingServiceImpl) ListBookingsForUser(ctx context.Context, userID uuid.UUID) ([]*model.BookingWithEvent, error) {
	return s.repository.FindByUserID(ctx, userID)
}

func (s *BookingServiceImpl) ListBookingsForEvent(ctx context.Context, requester identity.User, eventID uuid.UUID) ([]*model.Booking, error) {
	if !requester.IsAdmin() {
		return nil, apperrors.ErrUnauthorized
	}
	if _, err := s.eventRepository.FindByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repository.FindByEventID(ctx, eventID)
}

func (s *BookingServiceImpl) HasActiveBooking(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	return s.repository.ExistsActive(ctx, userID, eventID)
}

// afterCommit 交易已提交，快取失效與事件發送失敗只記錄，不影響結果
func (s *BookingServiceImpl) afterCommit(ctx context.Context, eventType queue.LedgerEventType, booking *model.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterCommitTimeout)
	defer cancel()

	log := logger.WithComponent("ledger").With(
		zap.String("booking_id", booking.ID.String()),
		zap.String("event_id", booking.EventID.String()),
	)

	if err := s.availability.Invalidate(ctx, booking.EventID); err != nil {
		log.Warn("failed to invalidate availability cache", zap.Error(err))
	}

	err := s.publisher.Publish(ctx, queue.LedgerEvent{
		Type:        eventType,
		BookingID:   booking.ID,
		BookingCode: booking.BookingCode,
		EventID:     booking.EventID,
		UserID:      booking.UserID,
		Tickets:     booking.Tickets,
		OccurredAt:  s.now().UTC(),
	})
	if err != nil {
		log.Warn("failed to publish ledger event", zap.String("type", string(eventType)), zap.Error(err))
	}
}
