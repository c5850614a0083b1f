package get_availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	resourceRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/resource"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
)

// UseCase use case для получения календаря доступности ресурса
type UseCase struct {
	bookingRepo  BookingRepository
	resourceRepo ResourceRepository
	location     *time.Location
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
// location задает границы календарных дней
func NewUseCase(
	bookingRepo BookingRepository,
	resourceRepo ResourceRepository,
	location *time.Location,
	logger Logger,
) *UseCase {
	if location == nil {
		location = time.UTC
	}
	return &UseCase{
		bookingRepo:  bookingRepo,
		resourceRepo: resourceRepo,
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

// Execute выполняет use case получения календаря
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailability: kind=%s, resource=%d, month=%d, year=%d",
		req.Kind, req.ResourceID, req.Month, req.Year)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailability: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем ресурс
	resource, err := uc.resourceRepo.GetByRef(ctx, req.Kind, req.ResourceID)
	if err != nil {
		if errors.Is(err, resourceRepo.ErrResourceNotFound) {
			uc.logger.Warn("GetAvailability: resource %s id=%d not found", req.Kind, req.ResourceID)
			return nil, domain.ErrResourceNotFound
		}
		uc.logger.Error("GetAvailability: failed to get resource %s id=%d: %v", req.Kind, req.ResourceID, err)
		return nil, fmt.Errorf("%w: failed to get resource: %v", ErrInternal, err)
	}

	// 3. Получаем бронирования, пересекающиеся с месяцем, end это первый день следующего месяца
	start, end := MonthRange(req.Year, req.Month, uc.location)
	bookings, err := uc.bookingRepo.List(ctx, domain.BookingFilter{
		Kind:       ptr.Ptr(req.Kind),
		ResourceID: ptr.Ptr(req.ResourceID),
		From:       &start,
		To:         &end,
	})
	if err != nil {
		uc.logger.Error("GetAvailability: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	// 4. Строим календарь
	days := Build(resource, start, end, ActiveAt(bookings, uc.timeProvider.Now()))

	uc.logger.Info("GetAvailability: built %d days for %s id=%d from %d bookings",
		len(days), req.Kind, req.ResourceID, len(bookings))

	return &Response{
		Kind:          req.Kind,
		ResourceID:    req.ResourceID,
		Month:         req.Month,
		Year:          req.Year,
		TotalCapacity: resource.CapacityPerDay(),
		Days:          Ordered(days),
	}, nil
}
