package get_availability

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	getAvailability "github.com/m04kA/SMC-ReservationService/internal/usecase/get_availability"
)

const (
	msgInvalidResourceID = "некорректный ID ресурса"
	msgInvalidMonth      = "некорректный месяц или год"
	msgResourceNotFound  = "ресурс не найден"
)

type Handler struct {
	useCase GetAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/resources/{kind}/{resourceId}/availability?month=&year=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]

	resourceID, err := strconv.ParseInt(vars["resourceId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /resources/{kind}/{id}/availability - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	month, errMonth := strconv.Atoi(r.URL.Query().Get("month"))
	year, errYear := strconv.Atoi(r.URL.Query().Get("year"))
	if errMonth != nil || errYear != nil {
		h.logger.Warn("GET /resources/{kind}/{id}/availability - Invalid month/year: %q/%q",
			r.URL.Query().Get("month"), r.URL.Query().Get("year"))
		handlers.RespondBadRequest(w, msgInvalidMonth)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailability.Request{
		Kind:       domain.ReservationKind(kind),
		ResourceID: resourceID,
		Month:      month,
		Year:       year,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrResourceNotFound):
			h.logger.Warn("GET /resources/{kind}/{id}/availability - Resource not found: %s id=%d", kind, resourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case handlers.RespondDomainError(w, err):
			h.logger.Warn("GET /resources/{kind}/{id}/availability - Rejected: %s id=%d, error=%v", kind, resourceID, err)

		default:
			h.logger.Error("GET /resources/{kind}/{id}/availability - Failed to build calendar: %s id=%d, error=%v",
				kind, resourceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /resources/{kind}/{id}/availability - Calendar built: %s id=%d, %04d-%02d",
		kind, resourceID, year, month)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
