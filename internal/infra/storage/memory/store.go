// Package memory is an in-process store with the same contracts as the
// postgres repositories. Transactions hold the store mutex and restore a
// snapshot on error.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

type counter struct {
	day   string
	value int64
}

type state struct {
	bookings  map[int64]domain.Booking
	resources map[domain.ResourceRef]domain.Resource
	payments  map[int64]domain.Payment
	refunds   map[int64]domain.Refund
	counters  map[string]counter

	nextBookingID int64
	nextPaymentID int64
	nextRefundID  int64
}

func newState() *state {
	return &state{
		bookings:  make(map[int64]domain.Booking),
		resources: make(map[domain.ResourceRef]domain.Resource),
		payments:  make(map[int64]domain.Payment),
		refunds:   make(map[int64]domain.Refund),
		counters:  make(map[string]counter),
	}
}

func (s *state) clone() *state {
	c := &state{
		bookings:      make(map[int64]domain.Booking, len(s.bookings)),
		resources:     make(map[domain.ResourceRef]domain.Resource, len(s.resources)),
		payments:      make(map[int64]domain.Payment, len(s.payments)),
		refunds:       make(map[int64]domain.Refund, len(s.refunds)),
		counters:      make(map[string]counter, len(s.counters)),
		nextBookingID: s.nextBookingID,
		nextPaymentID: s.nextPaymentID,
		nextRefundID:  s.nextRefundID,
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.resources {
		c.resources[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.refunds {
		c.refunds[k] = v
	}
	for k, v := range s.counters {
		c.counters[k] = v
	}
	return c
}

// Store in-process хранилище
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{data: newState()}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// withLock выполняет fn под мьютексом, внутри транзакции мьютекс уже захвачен
func (s *Store) withLock(ctx context.Context, fn func(data *state) error) error {
	if s.inTx(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// PutResource добавляет или заменяет ресурс
func (s *Store) PutResource(r domain.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.resources[domain.ResourceRef{Kind: r.Kind, ID: r.ID}] = r
}

// Bookings репозиторий бронирований
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{store: s} }

// Resources репозиторий ресурсов
func (s *Store) Resources() *ResourceRepository { return &ResourceRepository{store: s} }

// Payments репозиторий платежей
func (s *Store) Payments() *PaymentRepository { return &PaymentRepository{store: s} }

// Refunds репозиторий возвратов
func (s *Store) Refunds() *RefundRepository { return &RefundRepository{store: s} }

// Counters счетчики номеров брони
func (s *Store) Counters() *CounterStore { return &CounterStore{store: s} }

// TxManager менеджер транзакций хранилища
func (s *Store) TxManager() *TxManager { return &TxManager{store: s} }

// TxManager транзакции поверх Store
type TxManager struct {
	store *Store
}

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	s := m.store
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		}
		if err != nil {
			s.data = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

// CounterStore счетчики номеров брони в памяти
type CounterStore struct {
	store *Store
}

// Next увеличивает счетчик scope, новый день начинается с 1
func (c *CounterStore) Next(ctx context.Context, scopeKey string, day time.Time) (int64, error) {
	var value int64
	err := c.store.withLock(ctx, func(data *state) error {
		dayKey := day.Format(domain.DateFormat)
		cur := data.counters[scopeKey]
		if cur.day != dayKey {
			cur = counter{day: dayKey}
		}
		cur.value++
		data.counters[scopeKey] = cur
		value = cur.value
		return nil
	})
	return value, err
}
