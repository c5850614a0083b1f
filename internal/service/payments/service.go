package payments

import (
	"context"
	"errors"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/booking"
	paymentRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/payment"
	"github.com/m04kA/SMC-ReservationService/internal/policy"
	"github.com/m04kA/SMC-ReservationService/internal/service/payments/models"
)

// Service фиксирует статусы платежей, о которых сообщает платежный провайдер
type Service struct {
	bookingRepo  BookingRepository
	paymentRepo  PaymentRepository
	txManager    TransactionManager
	lifecycle    Lifecycle
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса платежей
func NewService(
	bookingRepo BookingRepository,
	paymentRepo PaymentRepository,
	txManager TransactionManager,
	lifecycle Lifecycle,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		paymentRepo:  paymentRepo,
		txManager:    txManager,
		lifecycle:    lifecycle,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// Record сохраняет платеж или обновляет его статус
// Завершенный платеж подтверждает pending бронирование, если срок истечения не наступил
// Доступно системе и администратору
func (s *Service) Record(ctx context.Context, req *models.RecordPaymentRequest) (*models.PaymentResponse, error) {
	s.logger.Info("Record: booking id=%d, payment=%v, status=%s", req.BookingID, req.PaymentID, req.Status)

	if !req.Actor.IsSystem() && !req.Actor.IsAdmin() {
		s.logger.Warn("Record: access denied for user=%d", req.Actor.UserID)
		return nil, domain.ErrAuthorization
	}

	// 1. Валидация
	verr := domain.NewValidationError()
	status, ok := domain.ParsePaymentStatus(req.Status)
	if !ok {
		verr.Add("status", "unknown payment status")
	}
	if req.BookingID <= 0 {
		verr.Add("bookingId", "must be positive")
	}
	if req.PaymentID == nil && req.Amount <= 0 {
		verr.Add("amount", "must be positive")
	}
	if err := verr.OrNil(); err != nil {
		s.logger.Warn("Record: validation failed: %v", err)
		return nil, err
	}

	now := s.timeProvider.Now()
	var (
		payment   *domain.Payment
		confirmed bool
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 2. Бронирование должно существовать, строка блокируется
		booking, err := s.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return domain.ErrBookingNotFound
			}
			return err
		}

		// 3. Новый платеж или обновление статуса существующего
		if req.PaymentID == nil {
			payment, err = s.paymentRepo.Create(txCtx, &domain.Payment{
				BookingID: req.BookingID,
				Amount:    req.Amount,
				Status:    status,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return err
			}
		} else {
			existing, err := s.paymentRepo.GetByID(txCtx, *req.PaymentID)
			if err != nil {
				if errors.Is(err, paymentRepo.ErrPaymentNotFound) {
					verr.Add("paymentId", "payment not found")
					return verr
				}
				return err
			}
			if existing.BookingID != req.BookingID {
				verr.Add("paymentId", "payment belongs to another booking")
				return verr
			}
			if err := s.paymentRepo.UpdateStatus(txCtx, existing.ID, status, now); err != nil {
				return err
			}
			existing.Status = status
			existing.UpdatedAt = now
			payment = existing
		}

		// 4. Оплаченное бронирование больше не истекает
		if payment.Status != domain.PaymentCompleted || booking.Status != domain.StatusPending {
			return nil
		}
		if policy.ShouldExpire(booking, now) {
			s.logger.Warn("Record: booking id=%d is overdue, payment id=%d does not confirm it", booking.ID, payment.ID)
			return nil
		}
		if _, err := s.lifecycle.Apply(txCtx, booking, domain.StatusConfirmed, now); err != nil {
			return err
		}
		confirmed = true
		return nil
	})
	if err != nil {
		s.logger.Warn("Record: booking id=%d failed: %v", req.BookingID, err)
		return nil, domain.AsTransactionError(err)
	}

	if confirmed {
		s.logger.Info("Record: booking id=%d confirmed by payment id=%d", req.BookingID, payment.ID)
	}
	s.logger.Info("Record: payment id=%d is %s", payment.ID, payment.Status)
	return models.FromDomainPayment(payment), nil
}
