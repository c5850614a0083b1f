package record_payment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/payments/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgNotFound           = "бронирование не найдено"
)

// RecordPaymentRequest HTTP request model
type RecordPaymentRequest struct {
	BookingID int64   `json:"bookingId" validate:"gt=0"`
	PaymentID *int64  `json:"paymentId,omitempty" validate:"omitempty,gt=0"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	Status    string  `json:"status" validate:"required,oneof=pending completed refunded"`
}

type Handler struct {
	service PaymentService
	logger  Logger
}

func NewHandler(service PaymentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/internal/payments
// Вызывается платежным провайдером, создает или обновляет платеж по бронированию
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req RecordPaymentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /internal/payments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(req); err != nil {
		handlers.RespondValidation(w, err)
		return
	}

	payment, err := h.service.Record(r.Context(), &models.RecordPaymentRequest{
		Actor:     actor,
		BookingID: req.BookingID,
		PaymentID: req.PaymentID,
		Amount:    req.Amount,
		Status:    req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case handlers.RespondDomainError(w, err):

		default:
			h.logger.Error("POST /internal/payments - Failed to record payment: booking_id=%d, error=%v",
				req.BookingID, err)
			handlers.RespondInternalError(w)
			return
		}
		h.logger.Warn("POST /internal/payments - Rejected: booking_id=%d, error=%v", req.BookingID, err)
		return
	}

	h.logger.Info("POST /internal/payments - Payment recorded: payment_id=%d, booking_id=%d, status=%s",
		payment.ID, payment.BookingID, payment.Status)
	handlers.RespondJSON(w, http.StatusOK, payment)
}
