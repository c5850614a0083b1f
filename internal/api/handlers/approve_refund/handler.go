package approve_refund

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

const (
	msgInvalidRefundID = "некорректный ID возврата"
	msgMissingUserID   = "отсутствует ID пользователя"
	msgNotFound        = "возврат не найден"
)

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

// Handle PATCH /api/v1/refunds/{refundId}/approve
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	refundID, err := strconv.ParseInt(mux.Vars(r)["refundId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /refunds/{id}/approve - Invalid refund ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRefundID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	refund, err := h.service.ApproveRefund(r.Context(), refundID, actor)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRefundNotFound):
			h.logger.Warn("PATCH /refunds/{id}/approve - Refund not found: refund_id=%d", refundID)
			handlers.RespondNotFound(w, msgNotFound)

		case handlers.RespondDomainError(w, err):
			h.logger.Warn("PATCH /refunds/{id}/approve - Rejected: refund_id=%d, user_id=%d, error=%v",
				refundID, actor.UserID, err)

		default:
			h.logger.Error("PATCH /refunds/{id}/approve - Failed to approve refund: refund_id=%d, error=%v",
				refundID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /refunds/{id}/approve - Refund approved: refund_id=%d, booking_id=%d", refundID, refund.BookingID)
	handlers.RespondJSON(w, http.StatusOK, refund)
}
