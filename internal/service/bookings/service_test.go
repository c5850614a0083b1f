package bookings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ReservationService/internal/service/bookings/models"
	"github.com/m04kA/SMC-ReservationService/internal/service/lifecycle"
	"github.com/m04kA/SMC-ReservationService/internal/service/payments"
	paymentModels "github.com/m04kA/SMC-ReservationService/internal/service/payments/models"
	"github.com/m04kA/SMC-ReservationService/internal/service/refunds"
	refundModels "github.com/m04kA/SMC-ReservationService/internal/service/refunds/models"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

const ownerID = int64(42)

var (
	owner    = domain.Actor{UserID: ownerID, Role: domain.RoleCustomer}
	stranger = domain.Actor{UserID: 7, Role: domain.RoleCustomer}
	admin    = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.NotificationEvent
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, msg.Event)
	return nil
}

func (n *recordingNotifier) Events() []domain.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.NotificationEvent(nil), n.events...)
}

type world struct {
	store    *memory.Store
	clock    *clock
	notifier *recordingNotifier
	bookings *Service
	refunds  *refunds.Service
	payments *payments.Service
}

func newWorld(t *testing.T) *world {
	t.Helper()
	log := logger.NewNop()
	store := memory.NewStore()
	c := &clock{now: t0}
	n := &recordingNotifier{}
	lc := lifecycle.New(store.Bookings(), log)

	refundSvc := refunds.NewService(store.Bookings(), store.Payments(), store.Refunds(), store.TxManager(), lc, n, nil, log).
		WithTimeProvider(c)
	bookingSvc := NewService(store.Bookings(), store.TxManager(), lc, refundSvc, n, nil, log).
		WithTimeProvider(c)
	paymentSvc := payments.NewService(store.Bookings(), store.Payments(), store.TxManager(), lc, log).
		WithTimeProvider(c)

	return &world{store: store, clock: c, notifier: n, bookings: bookingSvc, refunds: refundSvc, payments: paymentSvc}
}

// resortIn создает pending бронирование курорта с датой услуги через lead от t0
func (w *world) resortIn(t *testing.T, lead time.Duration) *domain.Booking {
	t.Helper()
	b, err := w.store.Bookings().Create(context.Background(), domain.NewBooking(ownerID, domain.ResortDetail{
		ResortID:   7,
		CheckIn:    t0.Add(lead),
		CheckOut:   t0.Add(lead).AddDate(0, 0, 2),
		GuestCount: 2,
	}, 1000, t0))
	require.NoError(t, err)
	return b
}

func (w *world) pay(t *testing.T, bookingID int64, amount float64) {
	t.Helper()
	_, err := w.payments.Record(context.Background(), &paymentModels.RecordPaymentRequest{
		Actor:     domain.SystemActor,
		BookingID: bookingID,
		Amount:    amount,
		Status:    string(domain.PaymentCompleted),
	})
	require.NoError(t, err)
}

func (w *world) status(t *testing.T, id int64) domain.BookingStatus {
	t.Helper()
	b, err := w.store.Bookings().GetByID(context.Background(), id)
	require.NoError(t, err)
	return b.Status
}

func TestCancel_WithinWindowRefunds(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	b := w.resortIn(t, 10*time.Hour)
	w.pay(t, b.ID, 1000)

	w.clock.Set(t0.Add(5 * time.Hour))
	resp, err := w.bookings.Cancel(ctx, b.ID, &models.CancelBookingRequest{Actor: owner})
	require.NoError(t, err)

	assert.True(t, resp.Refunded)
	require.NotNil(t, resp.RefundAmount)
	assert.Equal(t, 700.0, *resp.RefundAmount)
	assert.Equal(t, domain.StatusCancelled, w.status(t, b.ID))

	payments, err := w.store.Payments().ListByBooking(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentRefunded, payments[0].Status)

	// второй возврат по тому же бронированию
	_, err = w.refunds.RequestRefund(ctx, b.ID, &refundModels.RequestRefundRequest{Actor: owner})
	assert.ErrorIs(t, err, domain.ErrAlreadyRefunded)

	assert.Contains(t, w.notifier.Events(), domain.EventBookingCancelled)
	assert.Contains(t, w.notifier.Events(), domain.EventRefundRequested)
}

func TestRequestRefund_AfterWindow(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	b := w.resortIn(t, 10*time.Hour)
	w.pay(t, b.ID, 1000)
	assert.Equal(t, domain.StatusConfirmed, w.status(t, b.ID))

	w.clock.Set(t0.Add(7 * time.Hour))
	_, err := w.refunds.RequestRefund(ctx, b.ID, &refundModels.RequestRefundRequest{Actor: owner})
	assert.ErrorIs(t, err, domain.ErrRefundWindowExpired)

	// транзакция откатилась, платеж не тронут
	payments, err := w.store.Payments().ListByBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, payments[0].Status)

	// оплаченное бронирование не истекло, отмена без возврата доступна до даты услуги
	n, err := w.bookings.ExpireOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, n)

	resp, err := w.bookings.Cancel(ctx, b.ID, &models.CancelBookingRequest{Actor: owner})
	require.NoError(t, err)
	assert.False(t, resp.Refunded)
	assert.Nil(t, resp.RefundAmount)
	assert.Equal(t, domain.StatusCancelled, w.status(t, b.ID))
}

func TestCancel_LatePaymentDoesNotSaveOverdueBooking(t *testing.T) {
	w := newWorld(t)
	b := w.resortIn(t, 10*time.Hour)

	w.clock.Set(t0.Add(7 * time.Hour))
	w.pay(t, b.ID, 1000)
	assert.Equal(t, domain.StatusPending, w.status(t, b.ID))

	_, err := w.bookings.Cancel(context.Background(), b.ID, &models.CancelBookingRequest{Actor: owner})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusExpired, w.status(t, b.ID))
}

func TestCancel_WithoutPayment(t *testing.T) {
	w := newWorld(t)
	b := w.resortIn(t, 72*time.Hour)

	resp, err := w.bookings.Cancel(context.Background(), b.ID, &models.CancelBookingRequest{Actor: owner})
	require.NoError(t, err)
	assert.False(t, resp.Refunded)
	assert.Equal(t, domain.StatusCancelled, w.status(t, b.ID))
}

func TestCancel_Authorization(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	b := w.resortIn(t, 72*time.Hour)

	_, err := w.bookings.Cancel(ctx, b.ID, &models.CancelBookingRequest{Actor: stranger})
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	_, err = w.bookings.Cancel(ctx, 999, &models.CancelBookingRequest{Actor: owner})
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	// клиент не может отменить после даты услуги, администратор может
	_, err = w.bookings.Transition(ctx, b.ID, &models.UpdateStatusRequest{Actor: admin, Status: "accepted"})
	require.NoError(t, err)
	w.clock.Set(t0.Add(73 * time.Hour))

	_, err = w.bookings.Cancel(ctx, b.ID, &models.CancelBookingRequest{Actor: owner})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = w.bookings.Cancel(ctx, b.ID, &models.CancelBookingRequest{Actor: admin})
	assert.NoError(t, err)
}

func TestCancel_OverduePendingExpires(t *testing.T) {
	w := newWorld(t)
	b := w.resortIn(t, 10*time.Hour)

	w.clock.Set(t0.Add(7 * time.Hour))
	_, err := w.bookings.Cancel(context.Background(), b.ID, &models.CancelBookingRequest{Actor: owner})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusExpired, w.status(t, b.ID))
}

func TestTransition_Rules(t *testing.T) {
	tests := []struct {
		name    string
		actor   domain.Actor
		from    domain.BookingStatus
		target  string
		wantErr error
	}{
		{"admin accepts pending", admin, domain.StatusPending, "accepted", nil},
		{"admin confirms pending", admin, domain.StatusPending, "confirmed", nil},
		{"admin declines pending", admin, domain.StatusPending, "declined", nil},
		{"admin completes confirmed", admin, domain.StatusConfirmed, "done", nil},
		{"customer cannot confirm", owner, domain.StatusPending, "confirmed", domain.ErrAuthorization},
		{"admin cannot expire", admin, domain.StatusPending, "expired", domain.ErrAuthorization},
		{"system expires", domain.SystemActor, domain.StatusPending, "expired", nil},
		{"done from pending", admin, domain.StatusPending, "done", domain.ErrInvalidTransition},
		{"terminal stays terminal", admin, domain.StatusDeclined, "accepted", domain.ErrInvalidTransition},
		{"back to pending", admin, domain.StatusConfirmed, "pending", domain.ErrInvalidTransition},
		{"unknown status", admin, domain.StatusPending, "paused", domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld(t)
			b := w.resortIn(t, 72*time.Hour)
			if tt.from != domain.StatusPending {
				b.SetStatus(tt.from, t0)
				require.NoError(t, w.store.Bookings().UpdateStatus(context.Background(), b))
			}

			resp, err := w.bookings.Transition(context.Background(), b.ID, &models.UpdateStatusRequest{Actor: tt.actor, Status: tt.target})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, w.status(t, b.ID))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, resp.Status)
			assert.Equal(t, domain.BookingStatus(tt.target), w.status(t, b.ID))
		})
	}
}

func TestTransition_DeclineCascadesToBoatAddOn(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	hotel, err := w.store.Bookings().Create(ctx, domain.NewBooking(ownerID, domain.HotelDetail{
		HotelID: 10, RoomID: 101, CheckIn: t0.Add(72 * time.Hour), CheckOut: t0.Add(120 * time.Hour), GuestCount: 2,
	}, 500, t0))
	require.NoError(t, err)
	boat := domain.NewBooking(ownerID, domain.BoatDetail{RideAt: t0.Add(72 * time.Hour), Adults: 2}, 0, t0)
	boat.ParentBookingID = ptr.Ptr(hotel.ID)
	boat, err = w.store.Bookings().Create(ctx, boat)
	require.NoError(t, err)

	_, err = w.bookings.Transition(ctx, hotel.ID, &models.UpdateStatusRequest{Actor: admin, Status: "declined"})
	require.NoError(t, err)

	stored, err := w.store.Bookings().GetByID(ctx, boat.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeclined, stored.Status)
	assert.Equal(t, domain.BoatCancelled, stored.Detail.(domain.BoatDetail).Status)
}

func TestCheckAndExpire_Idempotent(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	b := w.resortIn(t, 10*time.Hour)

	w.clock.Set(t0.Add(5 * time.Hour))
	got, err := w.bookings.CheckAndExpire(ctx, b.ID, TriggerTask)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	w.clock.Set(t0.Add(7 * time.Hour))
	for i := 0; i < 3; i++ {
		got, err = w.bookings.CheckAndExpire(ctx, b.ID, TriggerTask)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusExpired, got.Status)
	}

	expiredEvents := 0
	for _, e := range w.notifier.Events() {
		if e == domain.EventBookingExpired {
			expiredEvents++
		}
	}
	assert.Equal(t, 1, expiredEvents)
}

func TestCheckAndExpire_ConcurrentCallsExpireOnce(t *testing.T) {
	w := newWorld(t)
	b := w.resortIn(t, 10*time.Hour)
	w.clock.Set(t0.Add(7 * time.Hour))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.bookings.CheckAndExpire(context.Background(), b.ID, TriggerSweep)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, domain.StatusExpired, w.status(t, b.ID))
	count := 0
	for _, e := range w.notifier.Events() {
		if e == domain.EventBookingExpired {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestGetByID_ExpiresOnRead(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	b := w.resortIn(t, 10*time.Hour)

	_, err := w.bookings.GetByID(ctx, b.ID, stranger)
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	w.clock.Set(t0.Add(7 * time.Hour))
	resp, err := w.bookings.GetByID(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "expired", resp.Status)
	require.NotNil(t, resp.Resort)
	assert.Equal(t, "expired", resp.Resort.Status)
	assert.Equal(t, t0.Add(6*time.Hour).Format(domain.DateTimeFormat), resp.ExpiresAt)
}

func TestExpireOverdue(t *testing.T) {
	w := newWorld(t)
	short := w.resortIn(t, 10*time.Hour) // срок 6ч
	long := w.resortIn(t, 72*time.Hour)  // срок 48ч
	paidConfirmed := w.resortIn(t, 10*time.Hour)
	paidConfirmed.SetStatus(domain.StatusConfirmed, t0)
	require.NoError(t, w.store.Bookings().UpdateStatus(context.Background(), paidConfirmed))

	w.clock.Set(t0.Add(7 * time.Hour))
	n, err := w.bookings.ExpireOverdue(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.StatusExpired, w.status(t, short.ID))
	assert.Equal(t, domain.StatusPending, w.status(t, long.ID))
	assert.Equal(t, domain.StatusConfirmed, w.status(t, paidConfirmed.ID))

	w.clock.Set(t0.Add(49 * time.Hour))
	n, err = w.bookings.ExpireOverdue(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.StatusExpired, w.status(t, long.ID))
}

func TestExpireOverdue_OlderLiveBookingsDoNotHideOverdue(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		w.resortIn(t, 72*time.Hour) // срок 48ч, к t0+8h не истек
	}

	createdAt := t0.Add(time.Hour)
	late, err := w.store.Bookings().Create(ctx, domain.NewBooking(ownerID, domain.ResortDetail{
		ResortID:   7,
		CheckIn:    createdAt.Add(10 * time.Hour),
		CheckOut:   createdAt.Add(10 * time.Hour).AddDate(0, 0, 1),
		GuestCount: 2,
	}, 1000, createdAt)) // срок 6ч, истек в t0+7h
	require.NoError(t, err)

	w.clock.Set(t0.Add(8 * time.Hour))
	n, err := w.bookings.ExpireOverdue(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.StatusExpired, w.status(t, late.ID))
}

func TestListUserBookings(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	first := w.resortIn(t, 72*time.Hour)
	second := w.resortIn(t, 96*time.Hour)
	second.SetStatus(domain.StatusCancelled, t0)
	require.NoError(t, w.store.Bookings().UpdateStatus(ctx, second))

	resp, err := w.bookings.ListUserBookings(ctx, &models.GetUserBookingsRequest{Actor: owner, UserID: ownerID})
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 2)
	assert.Equal(t, first.ID, resp.Bookings[0].ID)

	resp, err = w.bookings.ListUserBookings(ctx, &models.GetUserBookingsRequest{Actor: admin, UserID: ownerID, Status: ptr.Ptr("cancelled")})
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, second.ID, resp.Bookings[0].ID)

	_, err = w.bookings.ListUserBookings(ctx, &models.GetUserBookingsRequest{Actor: stranger, UserID: ownerID})
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	_, err = w.bookings.ListUserBookings(ctx, &models.GetUserBookingsRequest{Actor: owner, UserID: ownerID, Status: ptr.Ptr("lost")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListResourceBookings(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.resortIn(t, 72*time.Hour)

	resp, err := w.bookings.ListResourceBookings(ctx, &models.GetResourceBookingsRequest{Actor: admin, Kind: "resort", ResourceID: 7})
	require.NoError(t, err)
	assert.Len(t, resp.Bookings, 1)

	_, err = w.bookings.ListResourceBookings(ctx, &models.GetResourceBookingsRequest{Actor: owner, Kind: "resort", ResourceID: 7})
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	_, err = w.bookings.ListResourceBookings(ctx, &models.GetResourceBookingsRequest{Actor: admin, Kind: "castle", ResourceID: 7})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
