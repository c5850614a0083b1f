package get_availability

import "github.com/m04kA/SMC-ReservationService/internal/domain"

const (
	minYear = 2000
	maxYear = 2100
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	verr := domain.NewValidationError()

	if _, ok := domain.ParseReservationKind(string(req.Kind)); !ok {
		verr.Add("kind", "unknown reservation kind")
	}
	if req.ResourceID <= 0 {
		verr.Add("resourceId", "must be positive")
	}
	if req.Month < 1 || req.Month > 12 {
		verr.Add("month", "must be between 1 and 12")
	}
	if req.Year < minYear || req.Year > maxYear {
		verr.Add("year", "must be between 2000 and 2100")
	}

	return verr.OrNil()
}
