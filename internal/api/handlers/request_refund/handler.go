package request_refund

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/refunds/models"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgNotFound           = "бронирование не найдено"
	msgWindowExpired      = "срок возврата истек"
	msgAlreadyRefunded    = "возврат по бронированию уже оформлен"
	msgNoPayment          = "бронирование не оплачено"
)

// RequestRefundRequest HTTP request model, тело опционально
type RequestRefundRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type Handler struct {
	service RefundService
	logger  Logger
}

func NewHandler(service RefundService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/refund
// Запрос возврата отменяет бронирование
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/refund - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req RequestRefundRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("POST /bookings/{id}/refund - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(req); err != nil {
		handlers.RespondValidation(w, err)
		return
	}

	refund, err := h.service.RequestRefund(r.Context(), bookingID, &models.RequestRefundRequest{
		Actor:  actor,
		Reason: req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, domain.ErrRefundWindowExpired):
			handlers.RespondConflict(w, msgWindowExpired)

		case errors.Is(err, domain.ErrAlreadyRefunded):
			handlers.RespondConflict(w, msgAlreadyRefunded)

		case errors.Is(err, domain.ErrNoPayment):
			handlers.RespondConflict(w, msgNoPayment)

		case handlers.RespondDomainError(w, err):

		default:
			h.logger.Error("POST /bookings/{id}/refund - Failed to request refund: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
			return
		}
		h.logger.Warn("POST /bookings/{id}/refund - Rejected: booking_id=%d, user_id=%d, error=%v",
			bookingID, actor.UserID, err)
		return
	}

	h.logger.Info("POST /bookings/{id}/refund - Refund requested: booking_id=%d, refund_id=%d, amount=%.2f",
		bookingID, refund.ID, refund.RefundAmount)
	handlers.RespondJSON(w, http.StatusCreated, refund)
}
