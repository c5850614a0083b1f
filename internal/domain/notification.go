package domain

// NotificationEvent what happened to a booking
type NotificationEvent string

const (
	EventBookingCreated       NotificationEvent = "booking.created"
	EventBookingStatusChanged NotificationEvent = "booking.status_changed"
	EventBookingCancelled     NotificationEvent = "booking.cancelled"
	EventBookingExpired       NotificationEvent = "booking.expired"
	EventRefundRequested      NotificationEvent = "refund.requested"
	EventRefundApproved       NotificationEvent = "refund.approved"
)

// Notification payload handed to the dispatcher after a successful operation
type Notification struct {
	Event           NotificationEvent
	RecipientUserID int64
	Booking         *Booking
	RefundAmount    *float64
}
