package refunds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/booking"
	refundRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/refund"
	"github.com/m04kA/SMC-ReservationService/internal/policy"
	"github.com/m04kA/SMC-ReservationService/internal/service/lifecycle"
	"github.com/m04kA/SMC-ReservationService/internal/service/refunds/models"
)

// Service сервис возвратов
type Service struct {
	bookingRepo  BookingRepository
	paymentRepo  PaymentRepository
	refundRepo   RefundRepository
	txManager    TransactionManager
	lifecycle    Lifecycle
	notifier     Notifier
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса возвратов
// notifier и metrics могут быть nil
func NewService(
	bookingRepo BookingRepository,
	paymentRepo PaymentRepository,
	refundRepo RefundRepository,
	txManager TransactionManager,
	lifecycle Lifecycle,
	notifier Notifier,
	metrics Metrics,
	logger Logger,
) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		bookingRepo:  bookingRepo,
		paymentRepo:  paymentRepo,
		refundRepo:   refundRepo,
		txManager:    txManager,
		lifecycle:    lifecycle,
		notifier:     notifier,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// Issue оформляет возврат 70% единственного завершенного платежа
// Вызывается внутри транзакции вызывающего, статус бронирования не меняет
// Порядок проверок: существующий возврат, оплата, окно возврата
func (s *Service) Issue(ctx context.Context, b *domain.Booking, now time.Time, reason *string) (*domain.Refund, error) {
	// 1. Возврат оформляется один раз
	if _, err := s.refundRepo.GetByBookingID(ctx, b.ID); err == nil {
		return nil, domain.ErrAlreadyRefunded
	} else if !errors.Is(err, refundRepo.ErrRefundNotFound) {
		return nil, fmt.Errorf("Issue - get refund for booking id=%d: %w", b.ID, err)
	}

	// 2. Ровно один завершенный платеж
	payments, err := s.paymentRepo.ListByBooking(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("Issue - list payments for booking id=%d: %w", b.ID, err)
	}
	var paid *domain.Payment
	completed := 0
	for _, p := range payments {
		if p.Status == domain.PaymentCompleted {
			paid = p
			completed++
		}
	}
	if completed != 1 {
		return nil, fmt.Errorf("%w: %d completed payments", domain.ErrNoPayment, completed)
	}

	// 3. Окно возврата
	if !policy.WithinRefundWindow(b, now) {
		return nil, fmt.Errorf("%w: deadline was %s", domain.ErrRefundWindowExpired,
			policy.BookingDeadline(b).Format(domain.DateTimeFormat))
	}

	// 4. Создаем возврат и помечаем платеж
	refund, err := s.refundRepo.Create(ctx, &domain.Refund{
		BookingID:      b.ID,
		PaymentID:      paid.ID,
		OriginalAmount: paid.Amount,
		RefundAmount:   domain.RefundAmountFor(paid.Amount),
		Status:         domain.RefundPending,
		Reason:         reason,
		CreatedAt:      now,
	})
	if err != nil {
		if errors.Is(err, refundRepo.ErrAlreadyExists) {
			return nil, domain.ErrAlreadyRefunded
		}
		return nil, fmt.Errorf("Issue - create refund for booking id=%d: %w", b.ID, err)
	}

	if err := s.paymentRepo.UpdateStatus(ctx, paid.ID, domain.PaymentRefunded, now); err != nil {
		return nil, fmt.Errorf("Issue - mark payment id=%d refunded: %w", paid.ID, err)
	}

	s.logger.Info("Issue: refund id=%d of %.2f for booking id=%d", refund.ID, refund.RefundAmount, b.ID)
	return refund, nil
}

// RequestRefund возврат по запросу владельца: возврат, отмена бронирования и
// пометка платежа выполняются в одной транзакции
func (s *Service) RequestRefund(ctx context.Context, bookingID int64, req *models.RequestRefundRequest) (*models.RefundResponse, error) {
	s.logger.Info("RequestRefund: booking id=%d by user=%d", bookingID, req.Actor.UserID)

	// 1. Валидация
	if req.Reason != nil && len(*req.Reason) > domain.MaxReasonLength {
		verr := domain.NewValidationError()
		verr.Add("reason", fmt.Sprintf("must be at most %d characters", domain.MaxReasonLength))
		return nil, verr
	}

	now := s.timeProvider.Now()
	var (
		booking *domain.Booking
		refund  *domain.Refund
		changes []lifecycle.Change
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 2. Блокируем бронирование
		b, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return domain.ErrBookingNotFound
			}
			return err
		}
		booking = b

		// 3. Возврат запрашивает только владелец
		if !b.IsOwnedBy(req.Actor.UserID) {
			return domain.ErrAuthorization
		}
		// Клиент отменяет только до даты услуги, как и в Cancel
		if !policy.CanCustomerCancel(b, now) {
			return fmt.Errorf("%w: service date has passed", domain.ErrInvalidTransition)
		}

		// 4. Возврат
		refund, err = s.Issue(txCtx, b, now, req.Reason)
		if err != nil {
			return err
		}

		// 5. Отмена через машину состояний
		changes, err = s.lifecycle.Apply(txCtx, b, domain.StatusCancelled, now)
		return err
	})
	if err != nil {
		s.logger.Warn("RequestRefund: booking id=%d failed: %v", bookingID, err)
		return nil, domain.AsTransactionError(err)
	}

	for _, change := range changes {
		s.metrics.BookingTransition(string(change.From), string(change.To()))
		s.notify(ctx, domain.Notification{
			Event:           domain.EventBookingCancelled,
			RecipientUserID: change.Booking.UserID,
			Booking:         change.Booking,
		})
	}
	s.metrics.RefundIssued(refund.RefundAmount)
	s.notify(ctx, domain.Notification{
		Event:           domain.EventRefundRequested,
		RecipientUserID: booking.UserID,
		Booking:         booking,
		RefundAmount:    &refund.RefundAmount,
	})

	s.logger.Info("RequestRefund: refund id=%d of %.2f issued for booking id=%d", refund.ID, refund.RefundAmount, bookingID)
	return models.FromDomainRefund(refund), nil
}

// ApproveRefund подтверждение возврата администратором (pending -> approved)
func (s *Service) ApproveRefund(ctx context.Context, refundID int64, actor domain.Actor) (*models.RefundResponse, error) {
	s.logger.Info("ApproveRefund: refund id=%d by user=%d", refundID, actor.UserID)

	if !actor.IsAdmin() {
		s.logger.Warn("ApproveRefund: access denied for user=%d", actor.UserID)
		return nil, domain.ErrAuthorization
	}

	now := s.timeProvider.Now()
	var (
		refund  *domain.Refund
		booking *domain.Booking
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		r, err := s.refundRepo.GetByID(txCtx, refundID)
		if err != nil {
			if errors.Is(err, refundRepo.ErrRefundNotFound) {
				return domain.ErrRefundNotFound
			}
			return err
		}
		if r.Status != domain.RefundPending {
			return fmt.Errorf("%w: refund is %s", domain.ErrInvalidTransition, r.Status)
		}

		if err := s.refundRepo.Approve(txCtx, r.ID, now); err != nil {
			return err
		}
		r.Status = domain.RefundApproved
		r.ApprovedAt = &now
		refund = r

		booking, err = s.bookingRepo.GetByID(txCtx, r.BookingID)
		return err
	})
	if err != nil {
		s.logger.Warn("ApproveRefund: refund id=%d failed: %v", refundID, err)
		return nil, domain.AsTransactionError(err)
	}

	s.notify(ctx, domain.Notification{
		Event:           domain.EventRefundApproved,
		RecipientUserID: booking.UserID,
		Booking:         booking,
		RefundAmount:    &refund.RefundAmount,
	})

	s.logger.Info("ApproveRefund: refund id=%d approved", refundID)
	return models.FromDomainRefund(refund), nil
}

func (s *Service) notify(ctx context.Context, n domain.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("notify: %s for user=%d failed: %v", n.Event, n.RecipientUserID, err)
	}
}
