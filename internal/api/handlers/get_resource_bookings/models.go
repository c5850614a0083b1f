package get_resource_bookings

import (
	"strconv"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/bookings/models"
)

// ToServiceRequest собирает запрос из query параметров
// from и to в формате YYYY-MM-DD, to не включительно
func ToServiceRequest(actor domain.Actor, kind string, resourceID int64, from, to, status, includeInactive string, loc *time.Location) (*models.GetResourceBookingsRequest, error) {
	verr := domain.NewValidationError()
	req := &models.GetResourceBookingsRequest{
		Actor:      actor,
		Kind:       kind,
		ResourceID: resourceID,
	}

	if from != "" {
		t, err := time.ParseInLocation(domain.DateFormat, from, loc)
		if err != nil {
			verr.Add("from", "expected format YYYY-MM-DD")
		}
		req.From = &t
	}
	if to != "" {
		t, err := time.ParseInLocation(domain.DateFormat, to, loc)
		if err != nil {
			verr.Add("to", "expected format YYYY-MM-DD")
		}
		req.To = &t
	}
	if status != "" {
		req.Status = &status
	}
	if includeInactive != "" {
		v, err := strconv.ParseBool(includeInactive)
		if err != nil {
			verr.Add("includeInactive", "expected true or false")
		}
		req.IncludeInactive = v
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return req, nil
}
