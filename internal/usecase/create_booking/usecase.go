package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	resourceRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/resource"
	"github.com/m04kA/SMC-ReservationService/internal/policy"
	"github.com/m04kA/SMC-ReservationService/internal/usecase/get_availability"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	resourceRepo ResourceRepository
	references   ReferenceAllocator
	txManager    TransactionManager
	scheduler    ExpiryScheduler
	notifier     Notifier
	metrics      Metrics
	location     *time.Location
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
// scheduler, notifier и metrics могут быть nil
func NewUseCase(
	bookingRepo BookingRepository,
	resourceRepo ResourceRepository,
	references ReferenceAllocator,
	txManager TransactionManager,
	scheduler ExpiryScheduler,
	notifier Notifier,
	metrics Metrics,
	location *time.Location,
	logger Logger,
) *UseCase {
	if scheduler == nil {
		scheduler = noopScheduler{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if location == nil {
		location = time.UTC
	}
	return &UseCase{
		bookingRepo:  bookingRepo,
		resourceRepo: resourceRepo,
		references:   references,
		txManager:    txManager,
		scheduler:    scheduler,
		notifier:     notifier,
		metrics:      metrics,
		location:     location,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания бронирования
// Блокировка строки ресурса сериализует конкурентные создания на один ресурс
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	kind := domain.ReservationKind("")
	if req.Detail != nil {
		kind = req.Detail.Kind()
	}
	uc.logger.Info("CreateBooking: user=%d, kind=%s", req.UserID, kind)

	// 1. Получаем текущее время
	now := uc.timeProvider.Now()

	// 2. Валидация входных данных
	if err := validateRequest(req, now, uc.location); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	var (
		booking *domain.Booking
		boat    *domain.Booking
	)

	// 3. Выполняем операции с БД в одной транзакции
	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 3.1. Проверяем ресурс и свободные даты
		if err := uc.checkCapacity(txCtx, req.Detail, now); err != nil {
			return err
		}

		// 3.2. Номер брони для отелей и курортов
		b := domain.NewBooking(req.UserID, req.Detail, req.TotalPrice, now)
		if scopeID, ok := referenceScope(req.Detail); ok {
			code, err := uc.references.Allocate(txCtx, b.Kind, scopeID, now)
			if err != nil {
				uc.logger.Error("CreateBooking: failed to allocate reference code: %v", err)
				return fmt.Errorf("failed to allocate reference code: %w", err)
			}
			b.ReferenceCode = &code
		}

		// 3.3. Сохраняем бронирование вместе с деталями
		created, err := uc.bookingRepo.Create(txCtx, b)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("failed to create booking: %w", err)
		}
		booking = created

		// 3.4. Трансфер на лодке для отеля отдельным дочерним бронированием
		hotel, ok := req.Detail.(domain.HotelDetail)
		if !ok || hotel.BoatAddOn == nil {
			return nil
		}
		if err := uc.checkCapacity(txCtx, *hotel.BoatAddOn, now); err != nil {
			return err
		}
		child := domain.NewBooking(req.UserID, *hotel.BoatAddOn, 0, now)
		child.ParentBookingID = ptr.Ptr(created.ID)
		boat, err = uc.bookingRepo.Create(txCtx, child)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create boat add-on: %v", err)
			return fmt.Errorf("failed to create boat add-on: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, domain.AsTransactionError(err)
	}

	// 4. После коммита: планирование истечения, уведомление, метрики
	created := []*domain.Booking{booking}
	if boat != nil {
		created = append(created, boat)
	}
	for _, b := range created {
		uc.metrics.BookingCreated(string(b.Kind))
		deadline := policy.BookingDeadline(b)
		if err := uc.scheduler.ScheduleExpiry(ctx, b.ID, deadline); err != nil {
			uc.logger.Warn("CreateBooking: failed to schedule expiry for booking id=%d: %v", b.ID, err)
		}
	}
	if err := uc.notifier.Notify(ctx, domain.Notification{
		Event:           domain.EventBookingCreated,
		RecipientUserID: booking.UserID,
		Booking:         booking,
	}); err != nil {
		uc.logger.Warn("CreateBooking: failed to notify user=%d: %v", booking.UserID, err)
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d", booking.ID)

	resp := &Response{
		BookingID:     booking.ID,
		Kind:          booking.Kind,
		Status:        booking.Status,
		ReferenceCode: booking.ReferenceCode,
		ExpiresAt:     policy.BookingDeadline(booking),
		CreatedAt:     booking.CreatedAt,
	}
	if boat != nil {
		resp.BoatBookingID = ptr.Ptr(boat.ID)
	}
	return resp, nil
}

// referenceScope scope счетчика номеров: id курорта или отеля
func referenceScope(detail domain.Detail) (int64, bool) {
	switch d := detail.(type) {
	case domain.ResortDetail:
		return d.ResortID, true
	case domain.HotelDetail:
		return d.HotelID, true
	}
	return 0, false
}

// checkCapacity блокирует ресурс и проверяет обслуживание, вместимость и занятость дат
// Поездка на лодке без назначенной лодки календарь не занимает
func (uc *UseCase) checkCapacity(ctx context.Context, detail domain.Detail, now time.Time) error {
	resourceID := detail.ResourceKey()
	if resourceID == nil {
		return nil
	}
	kind := detail.Kind()

	resource, err := uc.resourceRepo.GetByRef(ctx, kind, *resourceID)
	if err != nil {
		if errors.Is(err, resourceRepo.ErrResourceNotFound) {
			uc.logger.Warn("CreateBooking: resource %s id=%d not found", kind, *resourceID)
			return domain.ErrResourceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get resource %s id=%d: %v", kind, *resourceID, err)
		return fmt.Errorf("failed to get resource: %w", err)
	}

	if hotel, ok := detail.(domain.HotelDetail); ok {
		if resource.ParentID == nil || *resource.ParentID != hotel.HotelID {
			verr := domain.NewValidationError()
			verr.Add("roomId", "room does not belong to the hotel")
			return verr
		}
	}

	if resource.Maintenance {
		uc.logger.Warn("CreateBooking: resource %s id=%d is under maintenance", kind, resource.ID)
		return fmt.Errorf("%w: %s id=%d is under maintenance", domain.ErrCapacity, kind, resource.ID)
	}
	if resource.GuestCapacity > 0 && detail.Guests() > resource.GuestCapacity {
		uc.logger.Warn("CreateBooking: %d guests exceed capacity %d of %s id=%d",
			detail.Guests(), resource.GuestCapacity, kind, resource.ID)
		return fmt.Errorf("%w: %d guests exceed capacity %d", domain.ErrCapacity, detail.Guests(), resource.GuestCapacity)
	}

	// Те же правила занятости, что и в календаре доступности
	candidate := domain.NewBooking(0, detail, 0, now)
	start, end := candidate.OccupancyIn(uc.location)
	bookings, err := uc.bookingRepo.List(ctx, domain.BookingFilter{
		Kind:       ptr.Ptr(kind),
		ResourceID: ptr.Ptr(resource.ID),
		From:       &start,
		To:         &end,
	})
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get bookings: %v", err)
		return fmt.Errorf("failed to get bookings: %w", err)
	}

	days := get_availability.Build(resource, start, end, get_availability.ActiveAt(bookings, now))
	if day, busy := get_availability.FirstUnavailable(days); busy {
		uc.logger.Warn("CreateBooking: %s id=%d is %s on %s", kind, resource.ID, day.Status, day.Date.Format(domain.DateFormat))
		return fmt.Errorf("%w: %s id=%d is %s on %s", domain.ErrCapacity, kind, resource.ID, day.Status, day.Date.Format(domain.DateFormat))
	}

	return nil
}
