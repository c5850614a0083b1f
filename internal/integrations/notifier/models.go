package notifier

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Payload тело сообщения в топике уведомлений
type Payload struct {
	Event           string          `json:"event"`
	RecipientUserID int64           `json:"recipientUserId"`
	Booking         *BookingPayload `json:"booking,omitempty"`
	RefundAmount    *float64        `json:"refundAmount,omitempty"`
	OccurredAt      time.Time       `json:"occurredAt"`
}

// BookingPayload бронирование в уведомлении
type BookingPayload struct {
	ID              int64      `json:"id"`
	Kind            string     `json:"kind"`
	Status          string     `json:"status"`
	ReferenceCode   *string    `json:"referenceCode,omitempty"`
	ParentBookingID *int64     `json:"parentBookingId,omitempty"`
	ServiceDate     time.Time  `json:"serviceDate"`
	CheckoutDate    *time.Time `json:"checkoutDate,omitempty"`
	GuestCount      int        `json:"guestCount"`
	TotalPrice      float64    `json:"totalPrice"`
}

func toPayload(n domain.Notification, at time.Time) Payload {
	p := Payload{
		Event:           string(n.Event),
		RecipientUserID: n.RecipientUserID,
		RefundAmount:    n.RefundAmount,
		OccurredAt:      at,
	}
	if b := n.Booking; b != nil {
		p.Booking = &BookingPayload{
			ID:              b.ID,
			Kind:            string(b.Kind),
			Status:          string(b.Status),
			ReferenceCode:   b.ReferenceCode,
			ParentBookingID: b.ParentBookingID,
			ServiceDate:     b.ServiceDate,
			CheckoutDate:    b.CheckoutDate,
			GuestCount:      b.GuestCount,
			TotalPrice:      b.TotalPrice,
		}
	}
	return p
}
