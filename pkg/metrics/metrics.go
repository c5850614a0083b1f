package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics коллектор prometheus метрик сервиса
// Все методы безопасны для nil-получателя: если метрики выключены, вызовы ничего не делают
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueryDuration   *prometheus.HistogramVec
	dbOpenConnections prometheus.Gauge
	dbInUse           prometheus.Gauge
	dbWaitCount       prometheus.Gauge

	bookingsCreated      *prometheus.CounterVec
	bookingTransitions   *prometheus.CounterVec
	bookingsExpired      *prometheus.CounterVec
	refundsIssued        prometheus.Counter
	refundAmount         prometheus.Counter
	referenceAllocations *prometheus.CounterVec
	notificationFailures prometheus.Counter
}

// New создает метрики и регистрирует их в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает метрики в указанном реестре (в тестах - prometheus.NewRegistry())
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation", "status"}),
		dbOpenConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections",
			ConstLabels: constLabels,
		}),
		dbInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}),
		dbWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}),
		bookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bookings_created_total",
			Help:        "Bookings created by reservation kind",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		bookingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_transitions_total",
			Help:        "Booking status transitions",
			ConstLabels: constLabels,
		}, []string{"from", "to"}),
		bookingsExpired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bookings_expired_total",
			Help:        "Pending bookings moved to expired",
			ConstLabels: constLabels,
		}, []string{"trigger"}),
		refundsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "refunds_issued_total",
			Help:        "Refund rows created",
			ConstLabels: constLabels,
		}),
		refundAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "refund_amount_total",
			Help:        "Sum of computed refund amounts",
			ConstLabels: constLabels,
		}),
		referenceAllocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "reference_allocations_total",
			Help:        "Reference codes allocated",
			ConstLabels: constLabels,
		}, []string{"kind", "status"}),
		notificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "notification_failures_total",
			Help:        "Notifications that failed to publish",
			ConstLabels: constLabels,
		}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dbQueryDuration,
		m.dbOpenConnections,
		m.dbInUse,
		m.dbWaitCount,
		m.bookingsCreated,
		m.bookingTransitions,
		m.bookingsExpired,
		m.refundsIssued,
		m.refundAmount,
		m.referenceAllocations,
		m.notificationFailures,
	)

	return m
}

// ObserveHTTPRequest фиксирует HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveDBQuery фиксирует длительность запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.dbQueryDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// SetDBPoolStats обновляет метрики пула соединений
func (m *Metrics) SetDBPoolStats(open, inUse int, waitCount int64) {
	if m == nil {
		return
	}
	m.dbOpenConnections.Set(float64(open))
	m.dbInUse.Set(float64(inUse))
	m.dbWaitCount.Set(float64(waitCount))
}

// BookingCreated фиксирует созданное бронирование
func (m *Metrics) BookingCreated(kind string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(kind).Inc()
}

// BookingTransition фиксирует смену статуса
func (m *Metrics) BookingTransition(from, to string) {
	if m == nil {
		return
	}
	m.bookingTransitions.WithLabelValues(from, to).Inc()
}

// BookingExpired фиксирует истечение бронирования (trigger: read, sweep, task)
func (m *Metrics) BookingExpired(trigger string) {
	if m == nil {
		return
	}
	m.bookingsExpired.WithLabelValues(trigger).Inc()
}

// RefundIssued фиксирует созданный возврат
func (m *Metrics) RefundIssued(amount float64) {
	if m == nil {
		return
	}
	m.refundsIssued.Inc()
	m.refundAmount.Add(amount)
}

// ReferenceAllocated фиксирует выдачу номера брони
func (m *Metrics) ReferenceAllocated(kind string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.referenceAllocations.WithLabelValues(kind, status).Inc()
}

// NotificationFailed фиксирует неудачную отправку уведомления
func (m *Metrics) NotificationFailed() {
	if m == nil {
		return
	}
	m.notificationFailures.Inc()
}
