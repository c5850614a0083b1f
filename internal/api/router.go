// Package api wires the HTTP handlers onto the router.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

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
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
)

// Handlers обработчики всех маршрутов
type Handlers struct {
	CreateBooking       *createBookingHandler.Handler
	GetBooking          *getBookingHandler.Handler
	CancelBooking       *cancelBookingHandler.Handler
	UpdateBookingStatus *updateBookingStatusHandler.Handler
	RequestRefund       *requestRefundHandler.Handler
	ApproveRefund       *approveRefundHandler.Handler
	GetUserBookings     *getUserBookingsHandler.Handler
	GetResourceBookings *getResourceBookingsHandler.Handler
	GetAvailability     *getAvailabilityHandler.Handler
	RecordPayment       *recordPaymentHandler.Handler
}

// Options дополнительные маршруты и middleware
type Options struct {
	// Metrics включает HTTP метрики, MetricsPath/MetricsHandler публикуют их
	Metrics        middleware.HTTPMetrics
	MetricsPath    string
	MetricsHandler http.Handler

	// Monitor веб-интерфейс очереди задач, монтируется по MonitorPath
	MonitorPath string
	Monitor     http.Handler
}

// NewRouter создает роутер сервиса
func NewRouter(h Handlers, opts Options) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	if opts.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(opts.Metrics))
	}

	// Metrics endpoint (публичный, без аутентификации)
	if opts.MetricsHandler != nil && opts.MetricsPath != "" {
		r.Handle(opts.MetricsPath, opts.MetricsHandler).Methods(http.MethodGet)
	}
	if opts.Monitor != nil && opts.MonitorPath != "" {
		r.PathPrefix(opts.MonitorPath).Handler(opts.Monitor)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Календарь доступности ресурса на месяц
	api.HandleFunc("/resources/{kind}/{resourceId}/availability",
		h.GetAvailability.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID / X-User-Role)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", h.CreateBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", h.GetBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", h.CancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/status", h.UpdateBookingStatus.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/users/{userId}/bookings", h.GetUserBookings.Handle).Methods(http.MethodGet)

	// --- Возвраты ---
	protected.HandleFunc("/bookings/{bookingId}/refund", h.RequestRefund.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/refunds/{refundId}/approve", h.ApproveRefund.Handle).Methods(http.MethodPatch)

	// --- Back-office ---
	protected.HandleFunc("/resources/{kind}/{resourceId}/bookings", h.GetResourceBookings.Handle).Methods(http.MethodGet)

	// --- Платежный провайдер ---
	protected.HandleFunc("/internal/payments", h.RecordPayment.Handle).Methods(http.MethodPost)

	return r
}
