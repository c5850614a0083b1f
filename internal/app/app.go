// Package app assembles services, use cases and HTTP handlers over a storage backend.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationService/internal/api"
	approveRefundHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/approve_refund"
	cancelBookingHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/create_booking"
	getAvailabilityHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_availability"
	getBookingHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_booking"
	getResourceBookingsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_resource_bookings"
	getUserBookingsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_user_bookings"
	recordPaymentHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/record_payment"
	requestRefundHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/request_refund"
	updateBookingStatusHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/update_booking_status"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/bookings"
	"github.com/m04kA/SMC-ReservationService/internal/service/lifecycle"
	"github.com/m04kA/SMC-ReservationService/internal/service/payments"
	"github.com/m04kA/SMC-ReservationService/internal/service/reference"
	"github.com/m04kA/SMC-ReservationService/internal/service/refunds"
	createBookingUC "github.com/m04kA/SMC-ReservationService/internal/usecase/create_booking"
	getAvailabilityUC "github.com/m04kA/SMC-ReservationService/internal/usecase/get_availability"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
)

// BookingRepository полный набор операций над бронированиями
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error)
	ListChildren(ctx context.Context, parentID int64) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, booking *domain.Booking) error
}

type ResourceRepository interface {
	GetByRef(ctx context.Context, kind domain.ReservationKind, id int64) (*domain.Resource, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]*domain.Payment, error)
	UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus, at time.Time) error
}

type RefundRepository interface {
	Create(ctx context.Context, refund *domain.Refund) (*domain.Refund, error)
	GetByID(ctx context.Context, id int64) (*domain.Refund, error)
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Refund, error)
	Approve(ctx context.Context, id int64, at time.Time) error
}

type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Storage хранилище: postgres или in-process
type Storage struct {
	Bookings  BookingRepository
	Resources ResourceRepository
	Payments  PaymentRepository
	Refunds   RefundRepository
	Counters  reference.CounterStore
	TxManager TransactionManager
}

// Notifier публикация уведомлений
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// ExpiryScheduler отложенная задача истечения
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, bookingID int64, at time.Time) error
}

type TimeProvider interface {
	Now() time.Time
}

type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Options побочные зависимости, любая может быть nil
type Options struct {
	Location  *time.Location
	Metrics   *metrics.Metrics
	Notifier  Notifier
	Scheduler ExpiryScheduler
	Clock     TimeProvider
	Router    api.Options
}

// App собранный сервис
type App struct {
	Bookings      *bookings.Service
	Refunds       *refunds.Service
	Payments      *payments.Service
	References    *reference.Service
	CreateBooking *createBookingUC.UseCase
	Availability  *getAvailabilityUC.UseCase
	Router        *mux.Router
}

// New собирает сервисы и роутер поверх хранилища
func New(storage Storage, opts Options, logger Logger) *App {
	location := opts.Location
	if location == nil {
		location = time.UTC
	}

	// Интерфейсы с typed nil внутри не равны nil, поэтому пустые зависимости не передаем
	var (
		notifier  Notifier        = noopNotifier{}
		scheduler ExpiryScheduler = noopScheduler{}
	)
	if opts.Notifier != nil {
		notifier = opts.Notifier
	}
	if opts.Scheduler != nil {
		scheduler = opts.Scheduler
	}

	// Инициализируем сервисы
	lc := lifecycle.New(storage.Bookings, logger)
	referenceSvc := reference.NewService(storage.Counters, location, opts.Metrics, logger)
	refundSvc := refunds.NewService(
		storage.Bookings,
		storage.Payments,
		storage.Refunds,
		storage.TxManager,
		lc,
		notifier,
		opts.Metrics,
		logger,
	)
	bookingSvc := bookings.NewService(
		storage.Bookings,
		storage.TxManager,
		lc,
		refundSvc,
		notifier,
		opts.Metrics,
		logger,
	)
	paymentSvc := payments.NewService(storage.Bookings, storage.Payments, storage.TxManager, lc, logger)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		storage.Bookings,
		storage.Resources,
		referenceSvc,
		storage.TxManager,
		scheduler,
		notifier,
		opts.Metrics,
		location,
		logger,
	)
	availabilityUseCase := getAvailabilityUC.NewUseCase(storage.Bookings, storage.Resources, location, logger)

	if opts.Clock != nil {
		refundSvc.WithTimeProvider(opts.Clock)
		bookingSvc.WithTimeProvider(opts.Clock)
		paymentSvc.WithTimeProvider(opts.Clock)
		createBookingUseCase.WithTimeProvider(opts.Clock)
		availabilityUseCase.WithTimeProvider(opts.Clock)
	}

	// Инициализируем handlers
	handlers := api.Handlers{
		CreateBooking:       createBookingHandler.NewHandler(createBookingUseCase, location, logger),
		GetBooking:          getBookingHandler.NewHandler(bookingSvc, logger),
		CancelBooking:       cancelBookingHandler.NewHandler(bookingSvc, logger),
		UpdateBookingStatus: updateBookingStatusHandler.NewHandler(bookingSvc, logger),
		RequestRefund:       requestRefundHandler.NewHandler(refundSvc, logger),
		ApproveRefund:       approveRefundHandler.NewHandler(refundSvc, logger),
		GetUserBookings:     getUserBookingsHandler.NewHandler(bookingSvc, logger),
		GetResourceBookings: getResourceBookingsHandler.NewHandler(bookingSvc, location, logger),
		GetAvailability:     getAvailabilityHandler.NewHandler(availabilityUseCase, logger),
		RecordPayment:       recordPaymentHandler.NewHandler(paymentSvc, logger),
	}

	routerOpts := opts.Router
	if opts.Metrics != nil && routerOpts.Metrics == nil {
		routerOpts.Metrics = opts.Metrics
	}

	return &App{
		Bookings:      bookingSvc,
		Refunds:       refundSvc,
		Payments:      paymentSvc,
		References:    referenceSvc,
		CreateBooking: createBookingUseCase,
		Availability:  availabilityUseCase,
		Router:        api.NewRouter(handlers, routerOpts),
	}
}

// Handler корневой HTTP обработчик
func (a *App) Handler() http.Handler {
	return a.Router
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, domain.Notification) error { return nil }

type noopScheduler struct{}

func (noopScheduler) ScheduleExpiry(context.Context, int64, time.Time) error { return nil }
