package create_booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgCapacity           = "выбранные даты недоступны или превышена вместимость"
	msgResourceNotFound   = "ресурс не найден"
)

type Handler struct {
	useCase  CreateBookingUseCase
	location *time.Location
	logger   Logger
}

func NewHandler(useCase CreateBookingUseCase, location *time.Location, logger Logger) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		useCase:  useCase,
		location: location,
		logger:   logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok || actor.UserID <= 0 {
		h.logger.Warn("POST /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if err := handlers.Validate(req); err != nil {
		h.logger.Warn("POST /bookings - Validation failed: user_id=%d, %v", actor.UserID, err)
		handlers.RespondValidation(w, err)
		return
	}

	// Конвертируем HTTP запрос в модель use case (с парсингом дат)
	useCaseReq, err := req.ToUseCaseRequest(actor.UserID, h.location)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondValidation(w, err)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCapacity):
			h.logger.Warn("POST /bookings - No capacity: user_id=%d, kind=%s", actor.UserID, req.Kind)
			handlers.RespondConflict(w, msgCapacity)

		case errors.Is(err, domain.ErrResourceNotFound):
			h.logger.Warn("POST /bookings - Resource not found: user_id=%d, kind=%s", actor.UserID, req.Kind)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case handlers.RespondDomainError(w, err):
			h.logger.Warn("POST /bookings - Rejected: user_id=%d, kind=%s, error=%v", actor.UserID, req.Kind, err)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: user_id=%d, kind=%s, error=%v",
				actor.UserID, req.Kind, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, user_id=%d, kind=%s",
		result.BookingID, actor.UserID, req.Kind)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
