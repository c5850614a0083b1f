package refunds

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ReservationService/internal/service/lifecycle"
	"github.com/m04kA/SMC-ReservationService/internal/service/refunds/models"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

var (
	owner = domain.Actor{UserID: 42, Role: domain.RoleCustomer}
	admin = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
)

func setup(t *testing.T, at time.Time) (*Service, *memory.Store, *domain.Booking) {
	t.Helper()
	log := logger.NewNop()
	store := memory.NewStore()
	svc := NewService(store.Bookings(), store.Payments(), store.Refunds(), store.TxManager(),
		lifecycle.New(store.Bookings(), log), nil, nil, log).WithTimeProvider(fixedTime{now: at})

	b, err := store.Bookings().Create(context.Background(), domain.NewBooking(owner.UserID, domain.ResortDetail{
		ResortID: 7, CheckIn: t0.Add(50 * time.Hour), CheckOut: t0.Add(98 * time.Hour), GuestCount: 2,
	}, 1000, t0))
	require.NoError(t, err)
	return svc, store, b
}

func addPayment(t *testing.T, store *memory.Store, bookingID int64, amount float64, status domain.PaymentStatus) {
	t.Helper()
	_, err := store.Payments().Create(context.Background(), &domain.Payment{BookingID: bookingID, Amount: amount, Status: status, CreatedAt: t0, UpdatedAt: t0})
	require.NoError(t, err)
}

func TestRequestRefund(t *testing.T) {
	svc, store, b := setup(t, t0.Add(47*time.Hour))
	addPayment(t, store, b.ID, 100.01, domain.PaymentCompleted)

	reason := "plans changed"
	resp, err := svc.RequestRefund(context.Background(), b.ID, &models.RequestRefundRequest{Actor: owner, Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, 70.01, resp.RefundAmount)
	assert.Equal(t, 100.01, resp.OriginalAmount)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, &reason, resp.Reason)

	stored, err := store.Bookings().GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
}

func TestRequestRefund_Errors(t *testing.T) {
	tests := []struct {
		name     string
		at       time.Time
		actor    domain.Actor
		payments []domain.PaymentStatus
		wantErr  error
	}{
		{"not owner", t0.Add(time.Hour), admin, []domain.PaymentStatus{domain.PaymentCompleted}, domain.ErrAuthorization},
		{"no payment", t0.Add(time.Hour), owner, nil, domain.ErrNoPayment},
		{"only pending payment", t0.Add(time.Hour), owner, []domain.PaymentStatus{domain.PaymentPending}, domain.ErrNoPayment},
		{"two completed payments", t0.Add(time.Hour), owner, []domain.PaymentStatus{domain.PaymentCompleted, domain.PaymentCompleted}, domain.ErrNoPayment},
		// дата услуги через 50ч после создания, окно 48ч
		{"deadline is inclusive", t0.Add(48 * time.Hour), owner, []domain.PaymentStatus{domain.PaymentCompleted}, nil},
		{"after deadline", t0.Add(48*time.Hour + time.Second), owner, []domain.PaymentStatus{domain.PaymentCompleted}, domain.ErrRefundWindowExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, b := setup(t, tt.at)
			for _, status := range tt.payments {
				addPayment(t, store, b.ID, 1000, status)
			}

			_, err := svc.RequestRefund(context.Background(), b.ID, &models.RequestRefundRequest{Actor: tt.actor})
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)

			stored, err := store.Bookings().GetByID(context.Background(), b.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusPending, stored.Status)
		})
	}
}

func TestRequestRefund_AfterServiceDate(t *testing.T) {
	log := logger.NewNop()
	store := memory.NewStore()
	ctx := context.Background()
	// заезд через 4ч после создания, окно 6ч длится дольше даты услуги
	b, err := store.Bookings().Create(ctx, domain.NewBooking(owner.UserID, domain.ResortDetail{
		ResortID: 7, CheckIn: t0.Add(4 * time.Hour), CheckOut: t0.Add(28 * time.Hour), GuestCount: 2,
	}, 1000, t0))
	require.NoError(t, err)
	addPayment(t, store, b.ID, 1000, domain.PaymentCompleted)

	svc := NewService(store.Bookings(), store.Payments(), store.Refunds(), store.TxManager(),
		lifecycle.New(store.Bookings(), log), nil, nil, log).WithTimeProvider(fixedTime{now: t0.Add(5 * time.Hour)})

	_, err = svc.RequestRefund(ctx, b.ID, &models.RequestRefundRequest{Actor: owner})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	payments, err := store.Payments().ListByBooking(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentCompleted, payments[0].Status)
	_, err = store.Refunds().GetByBookingID(ctx, b.ID)
	assert.Error(t, err)

	// до даты услуги возврат проходит
	svc = svc.WithTimeProvider(fixedTime{now: t0.Add(3 * time.Hour)})
	_, err = svc.RequestRefund(ctx, b.ID, &models.RequestRefundRequest{Actor: owner})
	require.NoError(t, err)
}

func TestRequestRefund_DoneBookingCannotBeCancelled(t *testing.T) {
	svc, store, b := setup(t, t0.Add(time.Hour))
	addPayment(t, store, b.ID, 1000, domain.PaymentCompleted)
	b.SetStatus(domain.StatusDone, t0)
	require.NoError(t, store.Bookings().UpdateStatus(context.Background(), b))

	_, err := svc.RequestRefund(context.Background(), b.ID, &models.RequestRefundRequest{Actor: owner})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// возврат откатился вместе с переходом
	_, err = store.Refunds().GetByBookingID(context.Background(), b.ID)
	assert.Error(t, err)
}

func TestApproveRefund(t *testing.T) {
	svc, store, b := setup(t, t0.Add(time.Hour))
	addPayment(t, store, b.ID, 1000, domain.PaymentCompleted)
	ctx := context.Background()

	refund, err := svc.RequestRefund(ctx, b.ID, &models.RequestRefundRequest{Actor: owner})
	require.NoError(t, err)

	_, err = svc.ApproveRefund(ctx, refund.ID, owner)
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	approved, err := svc.ApproveRefund(ctx, refund.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	_, err = svc.ApproveRefund(ctx, refund.ID, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.ApproveRefund(ctx, 999, admin)
	assert.ErrorIs(t, err, domain.ErrRefundNotFound)
}
