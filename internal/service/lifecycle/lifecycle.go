// Package lifecycle applies state machine transitions to a booking and its
// boat add-on inside the caller's transaction.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Change переход одного бронирования
type Change struct {
	Booking *domain.Booking
	From    domain.BookingStatus
}

// To статус после перехода
func (c Change) To() domain.BookingStatus {
	return c.Booking.Status
}

// Lifecycle переводит бронирования по машине состояний
type Lifecycle struct {
	bookingRepo BookingRepository
	logger      Logger
}

// New создает Lifecycle
func New(bookingRepo BookingRepository, logger Logger) *Lifecycle {
	return &Lifecycle{
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// cascades отрицательные терминальные статусы переходят на дочерние бронирования
func cascades(target domain.BookingStatus) bool {
	switch target {
	case domain.StatusDeclined, domain.StatusCancelled, domain.StatusExpired:
		return true
	}
	return false
}

// Apply переводит бронирование в target и сохраняет статус вместе с деталями
// Вызывается внутри транзакции, строка бронирования должна быть уже заблокирована
// Возвращает все изменения, включая каскад на живые дочерние бронирования
func (l *Lifecycle) Apply(ctx context.Context, b *domain.Booking, target domain.BookingStatus, at time.Time) ([]Change, error) {
	if !domain.CanTransition(b.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, b.Status, target)
	}

	from := b.Status
	b.SetStatus(target, at)
	if err := l.bookingRepo.UpdateStatus(ctx, b); err != nil {
		return nil, fmt.Errorf("Apply - update booking id=%d: %w", b.ID, err)
	}
	changes := []Change{{Booking: b, From: from}}

	if !cascades(target) {
		return changes, nil
	}

	children, err := l.bookingRepo.ListChildren(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("Apply - list children of booking id=%d: %w", b.ID, err)
	}

	for _, child := range children {
		if child.Status.IsTerminal() {
			continue
		}

		// expired и declined у дочернего бронирования превращаются в cancelled, если переход недоступен
		childTarget := target
		if !domain.CanTransition(child.Status, childTarget) {
			childTarget = domain.StatusCancelled
		}
		if !domain.CanTransition(child.Status, childTarget) {
			l.logger.Warn("Apply: child booking id=%d in status %s cannot follow parent id=%d", child.ID, child.Status, b.ID)
			continue
		}

		childFrom := child.Status
		child.SetStatus(childTarget, at)
		if err := l.bookingRepo.UpdateStatus(ctx, child); err != nil {
			return nil, fmt.Errorf("Apply - update child booking id=%d: %w", child.ID, err)
		}
		l.logger.Info("Apply: child booking id=%d %s -> %s after parent id=%d", child.ID, childFrom, childTarget, b.ID)
		changes = append(changes, Change{Booking: child, From: childFrom})
	}

	return changes, nil
}
