package models

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// RequestRefundRequest запрос возврата от владельца бронирования
type RequestRefundRequest struct {
	Actor  domain.Actor
	Reason *string
}

// RefundResponse ответ с данными возврата
type RefundResponse struct {
	ID             int64      `json:"id"`
	BookingID      int64      `json:"bookingId"`
	PaymentID      int64      `json:"paymentId"`
	OriginalAmount float64    `json:"originalAmount"`
	RefundAmount   float64    `json:"refundAmount"`
	Status         string     `json:"status"`
	Reason         *string    `json:"reason,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	ApprovedAt     *time.Time `json:"approvedAt,omitempty"`
}

// FromDomainRefund конвертирует domain модель в DTO
func FromDomainRefund(r *domain.Refund) *RefundResponse {
	if r == nil {
		return nil
	}
	return &RefundResponse{
		ID:             r.ID,
		BookingID:      r.BookingID,
		PaymentID:      r.PaymentID,
		OriginalAmount: r.OriginalAmount,
		RefundAmount:   r.RefundAmount,
		Status:         string(r.Status),
		Reason:         r.Reason,
		CreatedAt:      r.CreatedAt,
		ApprovedAt:     r.ApprovedAt,
	}
}
