package models

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// RecordPaymentRequest статус платежа от платежного провайдера
// Без PaymentID создается новый платеж, с PaymentID обновляется существующий
type RecordPaymentRequest struct {
	Actor     domain.Actor
	BookingID int64
	PaymentID *int64
	Amount    float64
	Status    string
}

// PaymentResponse ответ с данными платежа
type PaymentResponse struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"bookingId"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromDomainPayment конвертирует domain модель в DTO
func FromDomainPayment(p *domain.Payment) *PaymentResponse {
	if p == nil {
		return nil
	}
	return &PaymentResponse{
		ID:        p.ID,
		BookingID: p.BookingID,
		Amount:    p.Amount,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
