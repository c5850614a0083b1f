package refunds

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/lifecycle"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

// PaymentRepository интерфейс репозитория платежей
type PaymentRepository interface {
	ListByBooking(ctx context.Context, bookingID int64) ([]*domain.Payment, error)
	UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus, at time.Time) error
}

// RefundRepository интерфейс репозитория возвратов
type RefundRepository interface {
	Create(ctx context.Context, refund *domain.Refund) (*domain.Refund, error)
	GetByID(ctx context.Context, id int64) (*domain.Refund, error)
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Refund, error)
	Approve(ctx context.Context, id int64, at time.Time) error
}

// Lifecycle применяет переходы машины состояний
type Lifecycle interface {
	Apply(ctx context.Context, b *domain.Booking, target domain.BookingStatus, at time.Time) ([]lifecycle.Change, error)
}

// Notifier отправляет уведомления, ошибки не влияют на результат операции
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Metrics метрики возвратов
type Metrics interface {
	BookingTransition(from, to string)
	RefundIssued(amount float64)
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

type noopMetrics struct{}

func (noopMetrics) BookingTransition(string, string) {}
func (noopMetrics) RefundIssued(float64)             {}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, domain.Notification) error { return nil }
