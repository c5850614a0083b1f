package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// validateRequest валидирует входные данные запроса, собирая ошибки по полям
func validateRequest(req *Request, now time.Time, loc *time.Location) error {
	verr := domain.NewValidationError()

	if req.UserID <= 0 {
		verr.Add("userId", "must be positive")
	}
	if req.TotalPrice < 0 {
		verr.Add("totalPrice", "must not be negative")
	}

	switch d := req.Detail.(type) {
	case domain.ResortDetail:
		validateID(verr, "resortId", d.ResortID)
		validateStay(verr, d.CheckIn, d.CheckOut, now, loc)
		validateGuests(verr, "guestCount", d.GuestCount)
	case domain.HotelDetail:
		validateID(verr, "hotelId", d.HotelID)
		validateID(verr, "roomId", d.RoomID)
		validateStay(verr, d.CheckIn, d.CheckOut, now, loc)
		validateGuests(verr, "guestCount", d.GuestCount)
		if d.BoatAddOn != nil {
			validateBoat(verr, "boat.", *d.BoatAddOn, now)
		}
	case domain.BoatDetail:
		validateBoat(verr, "", d, now)
	case domain.RestaurantDetail:
		validateID(verr, "tableId", d.TableID)
		validateFuture(verr, "reservedAt", d.ReservedAt, now)
		validateGuests(verr, "guestCount", d.GuestCount)
	case domain.LandingAreaDetail:
		validateID(verr, "landingAreaId", d.LandingAreaID)
		validateFuture(verr, "pickupAt", d.PickupAt, now)
		validateGuests(verr, "passengers", d.Passengers)
	case nil:
		verr.Add("kind", "reservation details are required")
	default:
		verr.Add("kind", "unsupported reservation kind")
	}

	return verr.OrNil()
}

func validateID(verr *domain.ValidationError, field string, id int64) {
	if id <= 0 {
		verr.Add(field, "must be positive")
	}
}

func validateGuests(verr *domain.ValidationError, field string, guests int) {
	if guests < 1 {
		verr.Add(field, "must be at least 1")
	}
	if guests > domain.MaxGuestsPerBooking {
		verr.Add(field, fmt.Sprintf("must be at most %d", domain.MaxGuestsPerBooking))
	}
}

// validateStay заезд не раньше сегодняшнего дня, выезд позже заезда, не больше MaxStayNights ночей
func validateStay(verr *domain.ValidationError, checkIn, checkOut, now time.Time, loc *time.Location) {
	if checkIn.IsZero() {
		verr.Add("checkIn", "is required")
		return
	}
	if checkOut.IsZero() {
		verr.Add("checkOut", "is required")
		return
	}

	today := domain.StartOfDay(now.In(loc))
	if domain.StartOfDay(checkIn.In(loc)).Before(today) {
		verr.Add("checkIn", "must not be in the past")
	}
	if !checkOut.After(checkIn) {
		verr.Add("checkOut", "must be after checkIn")
		return
	}
	if checkOut.Sub(checkIn) > domain.MaxStayNights*24*time.Hour {
		verr.Add("checkOut", fmt.Sprintf("stay must be at most %d nights", domain.MaxStayNights))
	}
}

func validateFuture(verr *domain.ValidationError, field string, at, now time.Time) {
	if at.IsZero() {
		verr.Add(field, "is required")
		return
	}
	if !at.After(now) {
		verr.Add(field, "must be in the future")
	}
}

func validateBoat(verr *domain.ValidationError, prefix string, d domain.BoatDetail, now time.Time) {
	if d.BoatID != nil && *d.BoatID <= 0 {
		verr.Add(prefix+"boatId", "must be positive")
	}
	validateFuture(verr, prefix+"rideAt", d.RideAt, now)
	if d.Adults < 1 {
		verr.Add(prefix+"adults", "must be at least 1")
	}
	if d.Children < 0 {
		verr.Add(prefix+"children", "must not be negative")
	}
	if d.Adults+d.Children > domain.MaxGuestsPerBooking {
		verr.Add(prefix+"adults", fmt.Sprintf("party must be at most %d", domain.MaxGuestsPerBooking))
	}
}
