package request_refund

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/service/refunds/models"
)

type RefundService interface {
	RequestRefund(ctx context.Context, bookingID int64, req *models.RequestRefundRequest) (*models.RefundResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
