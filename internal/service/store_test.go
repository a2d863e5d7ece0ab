package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"eventbook/internal/model"
	apperrors "eventbook/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// memStore 記憶體版儲存，交易以互斥鎖序列化，寫入在 Commit 前只存在交易內。
// 唯一性規則與 bookings 資料表的約束相同
type memStore struct {
	txMu sync.Mutex

	mu       sync.RWMutex
	events   map[uuid.UUID]model.Event
	bookings map[uuid.UUID]model.Booking
	seq      int64

	// 下一次 Commit 要回傳的錯誤，用來模擬序列化失敗
	commitErr error
	commits   int
}

func newMemStore() *memStore {
	return &memStore{
		events:   make(map[uuid.UUID]model.Event),
		bookings: make(map[uuid.UUID]model.Booking),
	}
}

func (s *memStore) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.txMu.Lock()
	return &memTx{
		store:    s,
		events:   make(map[uuid.UUID]model.Event),
		bookings: make(map[uuid.UUID]model.Booking),
	}, nil
}

func (s *memStore) nextTimestamp() time.Time {
	s.seq++
	return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *memStore) putEvent(e model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
}

func (s *memStore) event(id uuid.UUID) model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events[id]
}

// bookingsFor 已提交的訂位，依建立順序
func (s *memStore) bookingsFor(eventID uuid.UUID) []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Booking, 0)
	for _, b := range s.bookings {
		if b.EventID == eventID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *memStore) commitCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

// memTx 只實作 Commit 與 Rollback，其他 pgx.Tx 方法不會被呼叫
type memTx struct {
	pgx.Tx
	store    *memStore
	events   map[uuid.UUID]model.Event
	bookings map[uuid.UUID]model.Booking
	done     bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	defer t.store.txMu.Unlock()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if err := t.store.commitErr; err != nil {
		t.store.commitErr = nil
		return err
	}
	for id, e := range t.events {
		t.store.events[id] = e
	}
	for id, b := range t.bookings {
		t.store.bookings[id] = b
	}
	t.store.commits++
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) event(id uuid.UUID) (model.Event, bool) {
	if e, ok := t.events[id]; ok {
		return e, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	e, ok := t.store.events[id]
	return e, ok
}

func (t *memTx) booking(id uuid.UUID) (model.Booking, bool) {
	if b, ok := t.bookings[id]; ok {
		return b, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	b, ok := t.store.bookings[id]
	return b, ok
}

// allBookings 交易視角下的全部訂位
func (t *memTx) allBookings() []model.Booking {
	t.store.mu.RLock()
	merged := make(map[uuid.UUID]model.Booking, len(t.store.bookings)+len(t.bookings))
	for id, b := range t.store.bookings {
		merged[id] = b
	}
	t.store.mu.RUnlock()
	for id, b := range t.bookings {
		merged[id] = b
	}
	out := make([]model.Booking, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	return out
}

type memEventRepository struct {
	store *memStore
}

func (r *memEventRepository) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e := *event
	e.CreatedAt = r.store.nextTimestamp()
	e.UpdatedAt = e.CreatedAt
	r.store.events[e.ID] = e
	return &e, nil
}

func (r *memEventRepository) List(ctx context.Context) ([]*model.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*model.Event, 0, len(r.store.events))
	for _, e := range r.store.events {
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	e, ok := r.store.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	return &e, nil
}

func (r *memEventRepository) Update(ctx context.Context, id uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	if params.Name != nil {
		e.Name = *params.Name
	}
	if params.Description != nil {
		e.Description = params.Description
	}
	if params.Price != nil {
		e.Price = *params.Price
	}
	if params.Date != nil {
		e.Date = params.Date.UTC()
	}
	if params.TotalSeats != nil {
		available := e.AvailableSeats + (*params.TotalSeats - e.TotalSeats)
		if available < 0 {
			return nil, apperrors.ErrSeatsBelowBooked
		}
		e.TotalSeats = *params.TotalSeats
		e.AvailableSeats = available
	}
	r.store.events[id] = e
	return &e, nil
}

func (r *memEventRepository) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Event, error) {
	e, ok := tx.(*memTx).event(id)
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	return &e, nil
}

func (r *memEventRepository) DecrementSeats(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error {
	mt := tx.(*memTx)
	e, ok := mt.event(id)
	if !ok || e.AvailableSeats < quantity {
		return apperrors.ErrInsufficientSeats
	}
	e.AvailableSeats -= quantity
	mt.events[id] = e
	return nil
}

func (r *memEventRepository) IncrementSeats(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error {
	mt := tx.(*memTx)
	e, ok := mt.event(id)
	if !ok || e.AvailableSeats+quantity > e.TotalSeats {
		return apperrors.ErrInvariantViolation
	}
	e.AvailableSeats += quantity
	mt.events[id] = e
	return nil
}

type memBookingRepository struct {
	store *memStore
}

func (r *memBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	return &b, nil
}

func (r *memBookingRepository) filter(keep func(model.Booking) bool) []*model.Booking {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*model.Booking, 0)
	for _, b := range r.store.bookings {
		if keep(b) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*model.BookingWithEvent, error) {
	bookings := r.filter(func(b model.Booking) bool { return b.UserID == userID })

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*model.BookingWithEvent, 0, len(bookings))
	for _, b := range bookings {
		e := r.store.events[b.EventID]
		out = append(out, &model.BookingWithEvent{Booking: *b, EventName: e.Name, EventDate: e.Date})
	}
	return out, nil
}

func (r *memBookingRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) ([]*model.Booking, error) {
	return r.filter(func(b model.Booking) bool { return b.EventID == eventID }), nil
}

func (r *memBookingRepository) ExistsActive(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	found := r.filter(func(b model.Booking) bool {
		return b.UserID == userID && b.EventID == eventID && b.IsActive()
	})
	return len(found) > 0, nil
}

func (r *memBookingRepository) Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error) {
	mt := tx.(*memTx)
	for _, b := range mt.allBookings() {
		switch {
		case b.BookingCode == booking.BookingCode:
			return nil, apperrors.ErrBookingCodeTaken
		case b.IsActive() && b.UserID == booking.UserID && b.EventID == booking.EventID:
			return nil, apperrors.ErrDuplicateBooking
		case booking.IdempotencyKey != nil && b.IdempotencyKey != nil &&
			b.UserID == booking.UserID && *b.IdempotencyKey == *booking.IdempotencyKey:
			return nil, apperrors.ErrIdempotencyConflict
		}
	}

	r.store.mu.Lock()
	created := *booking
	created.CreatedAt = r.store.nextTimestamp()
	created.UpdatedAt = created.CreatedAt
	r.store.mu.Unlock()

	mt.bookings[created.ID] = created
	return &created, nil
}

func (r *memBookingRepository) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error) {
	b, ok := tx.(*memTx).booking(id)
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	return &b, nil
}

func (r *memBookingRepository) FindByIdempotencyKey(ctx context.Context, tx pgx.Tx, userID uuid.UUID, key string) (*model.Booking, error) {
	for _, b := range tx.(*memTx).allBookings() {
		if b.UserID == userID && b.IdempotencyKey != nil && *b.IdempotencyKey == key {
			return &b, nil
		}
	}
	return nil, apperrors.ErrBookingNotFound
}

func (r *memBookingRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.BookingStatus) (*model.Booking, error) {
	mt := tx.(*memTx)
	b, ok := mt.booking(id)
	if !ok || !from.CanTransitionTo(to) || b.Status != from {
		return nil, apperrors.ErrBookingNotActive
	}
	b.Status = to
	b.UpdatedAt = b.UpdatedAt.Add(time.Second)
	mt.bookings[id] = b
	return &b, nil
}
