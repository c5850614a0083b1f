package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/booking"
	paymentRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/payment"
	refundRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/refund"
	resourceRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/resource"
	"github.com/m04kA/SMC-ReservationService/internal/policy"
)

// BookingRepository бронирования в памяти, ошибки совпадают с postgres-репозиторием
type BookingRepository struct {
	store *Store
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	if b.Detail == nil {
		return nil, fmt.Errorf("%w: Create - booking without detail", bookingRepo.ErrUnknownDetail)
	}
	err := r.store.withLock(ctx, func(data *state) error {
		data.nextBookingID++
		b.ID = data.nextBookingID
		data.bookings[b.ID] = *b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var found domain.Booking
	err := r.store.withLock(ctx, func(data *state) error {
		b, ok := data.bookings[id]
		if !ok {
			return bookingRepo.ErrBookingNotFound
		}
		found = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *BookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	return r.collect(ctx, filter.Limit, func(b *domain.Booking) bool {
		return matches(b, filter)
	}, func(a, b *domain.Booking) bool {
		if !a.ServiceDate.Equal(b.ServiceDate) {
			return a.ServiceDate.Before(b.ServiceDate)
		}
		return a.ID < b.ID
	})
}

func (r *BookingRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	cutoffs := policy.OverdueCutoffs(now)
	return r.collect(ctx, limit, func(b *domain.Booking) bool {
		if b.Status != domain.StatusPending {
			return false
		}
		for _, c := range cutoffs {
			if c.Matches(b.CreatedAt, b.ServiceDate) {
				return true
			}
		}
		return false
	}, func(a, b *domain.Booking) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (r *BookingRepository) ListChildren(ctx context.Context, parentID int64) ([]*domain.Booking, error) {
	return r.collect(ctx, 0, func(b *domain.Booking) bool {
		return b.ParentBookingID != nil && *b.ParentBookingID == parentID
	}, func(a, b *domain.Booking) bool {
		return a.ID < b.ID
	})
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, b *domain.Booking) error {
	return r.store.withLock(ctx, func(data *state) error {
		stored, ok := data.bookings[b.ID]
		if !ok {
			return bookingRepo.ErrBookingNotFound
		}
		stored.Status = b.Status
		stored.UpdatedAt = b.UpdatedAt
		stored.Detail = b.Detail
		data.bookings[b.ID] = stored
		return nil
	})
}

func (r *BookingRepository) collect(
	ctx context.Context,
	limit int,
	keep func(b *domain.Booking) bool,
	less func(a, b *domain.Booking) bool,
) ([]*domain.Booking, error) {
	result := make([]*domain.Booking, 0)
	err := r.store.withLock(ctx, func(data *state) error {
		for _, stored := range data.bookings {
			b := stored
			if keep(&b) {
				result = append(result, &b)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// matches повторяет условия WHERE postgres-репозитория
func matches(b *domain.Booking, f domain.BookingFilter) bool {
	if f.UserID != nil && b.UserID != *f.UserID {
		return false
	}
	if f.Kind != nil && b.Kind != *f.Kind {
		return false
	}
	if f.ResourceID != nil && (b.ResourceID == nil || *b.ResourceID != *f.ResourceID) {
		return false
	}
	if f.To != nil && !b.ServiceDate.Before(*f.To) {
		return false
	}
	if f.From != nil {
		last := b.ServiceDate
		if b.CheckoutDate != nil {
			last = *b.CheckoutDate
		}
		if last.Before(*f.From) {
			return false
		}
	}
	if f.Status != nil {
		return b.Status == *f.Status
	}
	return f.IncludeInactive || !b.Status.IsInactive()
}

// ResourceRepository ресурсы в памяти
type ResourceRepository struct {
	store *Store
}

func (r *ResourceRepository) GetByRef(ctx context.Context, kind domain.ReservationKind, id int64) (*domain.Resource, error) {
	var found domain.Resource
	err := r.store.withLock(ctx, func(data *state) error {
		res, ok := data.resources[domain.ResourceRef{Kind: kind, ID: id}]
		if !ok {
			return resourceRepo.ErrResourceNotFound
		}
		found = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// PaymentRepository платежи в памяти
type PaymentRepository struct {
	store *Store
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	err := r.store.withLock(ctx, func(data *state) error {
		data.nextPaymentID++
		p.ID = data.nextPaymentID
		data.payments[p.ID] = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var found domain.Payment
	err := r.store.withLock(ctx, func(data *state) error {
		p, ok := data.payments[id]
		if !ok {
			return paymentRepo.ErrPaymentNotFound
		}
		found = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]*domain.Payment, error) {
	result := make([]*domain.Payment, 0)
	err := r.store.withLock(ctx, func(data *state) error {
		for _, stored := range data.payments {
			if stored.BookingID == bookingID {
				p := stored
				result = append(result, &p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus, at time.Time) error {
	return r.store.withLock(ctx, func(data *state) error {
		p, ok := data.payments[id]
		if !ok {
			return paymentRepo.ErrPaymentNotFound
		}
		p.Status = status
		p.UpdatedAt = at
		data.payments[id] = p
		return nil
	})
}

// RefundRepository возвраты в памяти
type RefundRepository struct {
	store *Store
}

func (r *RefundRepository) Create(ctx context.Context, refund *domain.Refund) (*domain.Refund, error) {
	err := r.store.withLock(ctx, func(data *state) error {
		for _, existing := range data.refunds {
			if existing.BookingID == refund.BookingID {
				return fmt.Errorf("%w: booking id=%d", refundRepo.ErrAlreadyExists, refund.BookingID)
			}
		}
		data.nextRefundID++
		refund.ID = data.nextRefundID
		data.refunds[refund.ID] = *refund
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

func (r *RefundRepository) GetByID(ctx context.Context, id int64) (*domain.Refund, error) {
	return r.find(ctx, func(refund domain.Refund) bool { return refund.ID == id })
}

func (r *RefundRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Refund, error) {
	return r.find(ctx, func(refund domain.Refund) bool { return refund.BookingID == bookingID })
}

func (r *RefundRepository) Approve(ctx context.Context, id int64, at time.Time) error {
	return r.store.withLock(ctx, func(data *state) error {
		refund, ok := data.refunds[id]
		if !ok || refund.Status != domain.RefundPending {
			return refundRepo.ErrRefundNotFound
		}
		refund.Status = domain.RefundApproved
		refund.ApprovedAt = &at
		data.refunds[id] = refund
		return nil
	})
}

func (r *RefundRepository) find(ctx context.Context, match func(domain.Refund) bool) (*domain.Refund, error) {
	var found *domain.Refund
	err := r.store.withLock(ctx, func(data *state) error {
		for _, stored := range data.refunds {
			if match(stored) {
				refund := stored
				found = &refund
				return nil
			}
		}
		return refundRepo.ErrRefundNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
