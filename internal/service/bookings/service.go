package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ReservationService/internal/policy"
	"github.com/m04kA/SMC-ReservationService/internal/service/bookings/models"
	"github.com/m04kA/SMC-ReservationService/internal/service/lifecycle"
)

// Триггеры истечения для метрик
const (
	TriggerRead   = "read"
	TriggerSweep  = "sweep"
	TriggerTask   = "task"
	TriggerAction = "action"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo  BookingRepository
	txManager    TransactionManager
	lifecycle    Lifecycle
	refunder     Refunder
	notifier     Notifier
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
// notifier и metrics могут быть nil
func NewService(
	bookingRepo BookingRepository,
	txManager TransactionManager,
	lifecycle Lifecycle,
	refunder Refunder,
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
		txManager:    txManager,
		lifecycle:    lifecycle,
		refunder:     refunder,
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

// GetByID получает бронирование по ID
// Перед чтением просроченное pending бронирование переводится в expired
// Доступно владельцу и администратору
func (s *Service) GetByID(ctx context.Context, id int64, actor domain.Actor) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, actor.UserID)

	booking, err := s.CheckAndExpire(ctx, id, TriggerRead)
	if err != nil {
		return nil, err
	}

	// Проверяем права доступа
	if !actor.IsSystem() && !actor.CanManage(booking) {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", actor.UserID, id)
		return nil, domain.ErrAuthorization
	}

	s.logger.Info("GetByID: successfully fetched booking id=%d", id)
	return models.FromDomainBooking(booking), nil
}

// ListUserBookings история бронирований пользователя, включая неактивные
// Пользователь видит только свои бронирования, администратор любые
func (s *Service) ListUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("ListUserBookings: fetching bookings for user=%d by user=%d", req.UserID, req.Actor.UserID)

	if !req.Actor.IsAdmin() && req.Actor.UserID != req.UserID {
		s.logger.Warn("ListUserBookings: access denied for user=%d to bookings of user=%d", req.Actor.UserID, req.UserID)
		return nil, domain.ErrAuthorization
	}

	filter := domain.BookingFilter{
		UserID:          &req.UserID,
		IncludeInactive: true,
		Limit:           domain.MaxListLimit,
	}

	verr := domain.NewValidationError()
	if req.Status != nil {
		status, ok := domain.ParseBookingStatus(*req.Status)
		if !ok {
			verr.Add("status", "unknown booking status")
		}
		filter.Status = &status
	}
	if req.Kind != nil {
		kind, ok := domain.ParseReservationKind(*req.Kind)
		if !ok {
			verr.Add("kind", "unknown reservation kind")
		}
		filter.Kind = &kind
	}
	if err := verr.OrNil(); err != nil {
		s.logger.Warn("ListUserBookings: invalid filter for user=%d: %v", req.UserID, err)
		return nil, err
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: ListUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListUserBookings: successfully fetched %d bookings for user=%d", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings), nil
}

// ListResourceBookings бронирования ресурса с фильтрацией по периоду и статусу
// Доступно только администратору
func (s *Service) ListResourceBookings(ctx context.Context, req *models.GetResourceBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("ListResourceBookings: fetching bookings for %s id=%d by user=%d", req.Kind, req.ResourceID, req.Actor.UserID)

	if !req.Actor.IsAdmin() {
		s.logger.Warn("ListResourceBookings: access denied for user=%d", req.Actor.UserID)
		return nil, domain.ErrAuthorization
	}

	verr := domain.NewValidationError()
	kind, ok := domain.ParseReservationKind(req.Kind)
	if !ok {
		verr.Add("kind", "unknown reservation kind")
	}
	if req.ResourceID <= 0 {
		verr.Add("resourceId", "must be positive")
	}
	if req.From != nil && req.To != nil && !req.From.Before(*req.To) {
		verr.Add("to", "must be after from")
	}

	filter := domain.BookingFilter{
		Kind:            &kind,
		ResourceID:      &req.ResourceID,
		From:            req.From,
		To:              req.To,
		IncludeInactive: req.IncludeInactive,
		Limit:           domain.MaxListLimit,
	}
	if req.Status != nil {
		status, ok := domain.ParseBookingStatus(*req.Status)
		if !ok {
			verr.Add("status", "unknown booking status")
		}
		filter.Status = &status
	}
	if err := verr.OrNil(); err != nil {
		s.logger.Warn("ListResourceBookings: invalid filter: %v", err)
		return nil, err
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListResourceBookings: repository error for %s id=%d: %v", req.Kind, req.ResourceID, err)
		return nil, fmt.Errorf("%w: ListResourceBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListResourceBookings: successfully fetched %d bookings for %s id=%d", len(bookings), req.Kind, req.ResourceID)
	return models.FromDomainBookingList(bookings), nil
}

// Transition переводит бронирование в новый статус
// accepted, confirmed, declined, done доступны администратору
// cancelled доступен владельцу (до даты услуги) и администратору
// expired выставляет только система
func (s *Service) Transition(ctx context.Context, bookingID int64, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	s.logger.Info("Transition: booking id=%d to status=%s by user=%d", bookingID, req.Status, req.Actor.UserID)

	// 1. Валидация статуса
	target, ok := domain.ParseBookingStatus(req.Status)
	if !ok {
		verr := domain.NewValidationError()
		verr.Add("status", "unknown booking status")
		return nil, verr
	}

	now := s.timeProvider.Now()
	var (
		booking       *domain.Booking
		changes       []lifecycle.Change
		expiredBefore bool
	)

	// 2. Переход внутри транзакции с блокировкой строки
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		b, err := s.getForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}
		booking = b

		if err := authorize(req.Actor, b, target, now); err != nil {
			return err
		}

		// Просроченное pending бронирование сначала истекает, дальнейший переход уже невозможен
		if target != domain.StatusExpired && policy.ShouldExpire(b, now) {
			expiredBefore = true
			changes, err = s.lifecycle.Apply(txCtx, b, domain.StatusExpired, now)
			return err
		}

		changes, err = s.lifecycle.Apply(txCtx, b, target, now)
		return err
	})
	if err != nil {
		s.logger.Warn("Transition: booking id=%d to %s failed: %v", bookingID, target, err)
		return nil, domain.AsTransactionError(err)
	}

	s.afterCommit(ctx, changes, TriggerAction)

	if expiredBefore {
		s.logger.Warn("Transition: booking id=%d expired before transition to %s", bookingID, target)
		return nil, fmt.Errorf("%w: booking expired", domain.ErrInvalidTransition)
	}

	s.logger.Info("Transition: booking id=%d is now %s", bookingID, booking.Status)
	return models.FromDomainBooking(booking), nil
}

// Cancel отменяет бронирование и, если возможно, оформляет возврат в той же транзакции
// Отсутствие оплаты, истекшее окно возврата или уже оформленный возврат отмену не блокируют
func (s *Service) Cancel(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) (*models.CancelBookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d by user=%d", bookingID, req.Actor.UserID)

	if req.Reason != nil && len(*req.Reason) > domain.MaxReasonLength {
		verr := domain.NewValidationError()
		verr.Add("reason", fmt.Sprintf("must be at most %d characters", domain.MaxReasonLength))
		return nil, verr
	}

	now := s.timeProvider.Now()
	var (
		booking       *domain.Booking
		changes       []lifecycle.Change
		refund        *domain.Refund
		expiredBefore bool
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Блокируем бронирование
		b, err := s.getForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}
		booking = b

		// 2. Проверяем права
		if err := authorize(req.Actor, b, domain.StatusCancelled, now); err != nil {
			return err
		}

		if policy.ShouldExpire(b, now) {
			expiredBefore = true
			changes, err = s.lifecycle.Apply(txCtx, b, domain.StatusExpired, now)
			return err
		}

		// 3. Отмена с каскадом на дочерние бронирования
		changes, err = s.lifecycle.Apply(txCtx, b, domain.StatusCancelled, now)
		if err != nil {
			return err
		}

		// 4. Возврат, если бронирование оплачено и окно не истекло
		refund, err = s.refunder.Issue(txCtx, b, now, req.Reason)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNoPayment),
			errors.Is(err, domain.ErrRefundWindowExpired),
			errors.Is(err, domain.ErrAlreadyRefunded):
			s.logger.Info("Cancel: booking id=%d cancelled without refund: %v", bookingID, err)
			refund = nil
		default:
			return err
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Cancel: booking id=%d failed: %v", bookingID, err)
		return nil, domain.AsTransactionError(err)
	}

	s.afterCommit(ctx, changes, TriggerAction)

	if expiredBefore {
		s.logger.Warn("Cancel: booking id=%d expired before cancellation", bookingID)
		return nil, fmt.Errorf("%w: booking expired", domain.ErrInvalidTransition)
	}

	resp := &models.CancelBookingResponse{
		Booking:  models.FromDomainBooking(booking),
		Refunded: refund != nil,
	}
	if refund != nil {
		amount := refund.RefundAmount
		resp.RefundAmount = &amount
		s.metrics.RefundIssued(amount)
		s.notify(ctx, domain.Notification{
			Event:           domain.EventRefundRequested,
			RecipientUserID: booking.UserID,
			Booking:         booking,
			RefundAmount:    &amount,
		})
	}

	s.logger.Info("Cancel: successfully cancelled booking id=%d, refunded=%t", bookingID, resp.Refunded)
	return resp, nil
}

// authorize проверяет право актора перевести бронирование в target
func authorize(actor domain.Actor, b *domain.Booking, target domain.BookingStatus, now time.Time) error {
	switch target {
	case domain.StatusExpired:
		if !actor.IsSystem() {
			return fmt.Errorf("%w: only the system expires bookings", domain.ErrAuthorization)
		}
	case domain.StatusCancelled:
		if actor.IsSystem() || actor.IsAdmin() {
			return nil
		}
		if !b.IsOwnedBy(actor.UserID) {
			return domain.ErrAuthorization
		}
		if !policy.CanCustomerCancel(b, now) {
			return fmt.Errorf("%w: service date has passed", domain.ErrInvalidTransition)
		}
	default:
		if !actor.IsAdmin() {
			return fmt.Errorf("%w: %s requires admin role", domain.ErrAuthorization, target)
		}
	}
	return nil
}

// getForUpdate читает бронирование, внутри транзакции строка блокируется
func (s *Service) getForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("booking id=%d not found", id)
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// afterCommit метрики и уведомления по завершенным переходам
func (s *Service) afterCommit(ctx context.Context, changes []lifecycle.Change, trigger string) {
	for _, change := range changes {
		to := change.To()
		s.metrics.BookingTransition(string(change.From), string(to))

		event := domain.EventBookingStatusChanged
		switch to {
		case domain.StatusExpired:
			s.metrics.BookingExpired(trigger)
			event = domain.EventBookingExpired
		case domain.StatusCancelled:
			event = domain.EventBookingCancelled
		}

		s.notify(ctx, domain.Notification{
			Event:           event,
			RecipientUserID: change.Booking.UserID,
			Booking:         change.Booking,
		})
	}
}

func (s *Service) notify(ctx context.Context, n domain.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("notify: %s for user=%d failed: %v", n.Event, n.RecipientUserID, err)
	}
}
