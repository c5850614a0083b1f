package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error)
}

// ResourceRepository интерфейс репозитория ресурсов
// Внутри транзакции GetByRef блокирует строку ресурса до коммита
type ResourceRepository interface {
	GetByRef(ctx context.Context, kind domain.ReservationKind, id int64) (*domain.Resource, error)
}

// ReferenceAllocator выдает номера брони
type ReferenceAllocator interface {
	Allocate(ctx context.Context, kind domain.ReservationKind, scopeID int64, now time.Time) (string, error)
}

// ExpiryScheduler планирует проверку истечения на дедлайн бронирования
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, bookingID int64, at time.Time) error
}

// Notifier отправляет уведомления, ошибки не влияют на результат операции
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Metrics метрики создания бронирований
type Metrics interface {
	BookingCreated(kind string)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

type noopScheduler struct{}

func (noopScheduler) ScheduleExpiry(context.Context, int64, time.Time) error { return nil }

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, domain.Notification) error { return nil }

type noopMetrics struct{}

func (noopMetrics) BookingCreated(string) {}
