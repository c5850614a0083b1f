package get_resource_bookings

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
)

const (
	msgInvalidResourceID = "некорректный ID ресурса"
	msgMissingUserID     = "отсутствует ID пользователя"
)

type Handler struct {
	service  BookingService
	location *time.Location
	logger   Logger
}

func NewHandler(service BookingService, location *time.Location, logger Logger) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		service:  service,
		location: location,
		logger:   logger,
	}
}

// Handle GET /api/v1/resources/{kind}/{resourceId}/bookings
// Query params: from, to, status, includeInactive (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]

	resourceID, err := strconv.ParseInt(vars["resourceId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /resources/{kind}/{id}/bookings - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	q := r.URL.Query()
	serviceReq, err := ToServiceRequest(actor, kind, resourceID,
		q.Get("from"), q.Get("to"), q.Get("status"), q.Get("includeInactive"), h.location)
	if err != nil {
		h.logger.Warn("GET /resources/{kind}/{id}/bookings - Invalid parameters: %v", err)
		handlers.RespondValidation(w, err)
		return
	}

	// Сервис сам проверит права администратора
	result, err := h.service.ListResourceBookings(r.Context(), serviceReq)
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("GET /resources/{kind}/{id}/bookings - Rejected: %s id=%d, user_id=%d, error=%v",
				kind, resourceID, actor.UserID, err)
			return
		}
		h.logger.Error("GET /resources/{kind}/{id}/bookings - Failed to get bookings: %s id=%d, error=%v",
			kind, resourceID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /resources/{kind}/{id}/bookings - Bookings retrieved successfully: %s id=%d, count=%d",
		kind, resourceID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result.Bookings)
}
