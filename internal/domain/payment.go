package domain

import (
	"math"
	"time"
)

// RefundRate fixed share of the paid amount returned to the guest
const RefundRate = 0.70

// PaymentStatus is reported by the external payment collaborator
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// ParsePaymentStatus converts a string to a known payment status
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch status := PaymentStatus(s); status {
	case PaymentPending, PaymentCompleted, PaymentRefunded:
		return status, true
	}
	return "", false
}

// Payment payment recorded against a booking
type Payment struct {
	ID        int64
	BookingID int64
	Amount    float64
	Status    PaymentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RefundStatus represents the status of a refund
type RefundStatus string

const (
	RefundPending  RefundStatus = "pending"
	RefundApproved RefundStatus = "approved"
)

// Refund at most one per booking, moves only pending -> approved
type Refund struct {
	ID             int64
	BookingID      int64
	PaymentID      int64
	OriginalAmount float64
	RefundAmount   float64
	Status         RefundStatus
	Reason         *string
	CreatedAt      time.Time
	ApprovedAt     *time.Time
}

// RefundAmountFor computes the refund for a paid amount, rounded to cents
func RefundAmountFor(paid float64) float64 {
	return math.Round(paid*RefundRate*100) / 100
}
