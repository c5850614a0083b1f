package create_booking

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	createBooking "github.com/m04kA/SMC-ReservationService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
// Заполняется ровно один блок, соответствующий kind
type CreateBookingRequest struct {
	Kind        string              `json:"kind" validate:"required,oneof=resort hotel boat restaurant landing_area"`
	TotalPrice  float64             `json:"totalPrice" validate:"gte=0"`
	Resort      *ResortRequest      `json:"resort,omitempty"`
	Hotel       *HotelRequest       `json:"hotel,omitempty"`
	Boat        *BoatRequest        `json:"boat,omitempty"`
	Restaurant  *RestaurantRequest  `json:"restaurant,omitempty"`
	LandingArea *LandingAreaRequest `json:"landingArea,omitempty"`
}

type ResortRequest struct {
	ResortID         int64   `json:"resortId" validate:"gt=0"`
	CheckIn          string  `json:"checkIn" validate:"required,datetime=2006-01-02"`  // "2025-10-15"
	CheckOut         string  `json:"checkOut" validate:"required,datetime=2006-01-02"` // "2025-10-17"
	GuestCount       int     `json:"guestCount" validate:"gte=1,lte=100"`
	PaymentProofPath *string `json:"paymentProofPath,omitempty"`
}

type HotelRequest struct {
	HotelID    int64        `json:"hotelId" validate:"gt=0"`
	RoomID     int64        `json:"roomId" validate:"gt=0"`
	CheckIn    string       `json:"checkIn" validate:"required,datetime=2006-01-02"`
	CheckOut   string       `json:"checkOut" validate:"required,datetime=2006-01-02"`
	GuestCount int          `json:"guestCount" validate:"gte=1,lte=100"`
	Boat       *BoatRequest `json:"boat,omitempty"`
}

type BoatRequest struct {
	BoatID   *int64 `json:"boatId,omitempty" validate:"omitempty,gt=0"`
	RideAt   string `json:"rideAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Adults   int    `json:"adults" validate:"gte=1"`
	Children int    `json:"children" validate:"gte=0"`
}

type RestaurantRequest struct {
	TableID    int64  `json:"tableId" validate:"gt=0"`
	ReservedAt string `json:"reservedAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	GuestCount int    `json:"guestCount" validate:"gte=1,lte=100"`
}

type LandingAreaRequest struct {
	LandingAreaID int64  `json:"landingAreaId" validate:"gt=0"`
	PickupAt      string `json:"pickupAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Passengers    int    `json:"passengers" validate:"gte=1,lte=100"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	BookingID     int64   `json:"bookingId"`
	Kind          string  `json:"kind"`
	Status        string  `json:"status"`
	ReferenceCode *string `json:"referenceCode,omitempty"`
	BoatBookingID *int64  `json:"boatBookingId,omitempty"`
	ExpiresAt     string  `json:"expiresAt"`
	CreatedAt     string  `json:"createdAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
// Даты заезда и выезда трактуются в часовом поясе сервиса
func (r *CreateBookingRequest) ToUseCaseRequest(userID int64, loc *time.Location) (*createBooking.Request, error) {
	verr := domain.NewValidationError()
	var detail domain.Detail

	switch domain.ReservationKind(r.Kind) {
	case domain.KindResort:
		if r.Resort == nil {
			verr.Add("resort", "is required for kind resort")
			break
		}
		checkIn, checkOut := parseStay(verr, "resort.", r.Resort.CheckIn, r.Resort.CheckOut, loc)
		detail = domain.ResortDetail{
			ResortID:         r.Resort.ResortID,
			CheckIn:          checkIn,
			CheckOut:         checkOut,
			GuestCount:       r.Resort.GuestCount,
			PaymentProofPath: r.Resort.PaymentProofPath,
			Status:           domain.StatusPending,
		}
	case domain.KindHotel:
		if r.Hotel == nil {
			verr.Add("hotel", "is required for kind hotel")
			break
		}
		checkIn, checkOut := parseStay(verr, "hotel.", r.Hotel.CheckIn, r.Hotel.CheckOut, loc)
		hotel := domain.HotelDetail{
			HotelID:    r.Hotel.HotelID,
			RoomID:     r.Hotel.RoomID,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			GuestCount: r.Hotel.GuestCount,
		}
		if r.Hotel.Boat != nil {
			boat := r.Hotel.Boat.toDomain(verr, "hotel.boat.")
			hotel.BoatAddOn = &boat
		}
		detail = hotel
	case domain.KindBoat:
		if r.Boat == nil {
			verr.Add("boat", "is required for kind boat")
			break
		}
		detail = r.Boat.toDomain(verr, "boat.")
	case domain.KindRestaurant:
		if r.Restaurant == nil {
			verr.Add("restaurant", "is required for kind restaurant")
			break
		}
		detail = domain.RestaurantDetail{
			TableID:    r.Restaurant.TableID,
			ReservedAt: parseTimestamp(verr, "restaurant.reservedAt", r.Restaurant.ReservedAt),
			GuestCount: r.Restaurant.GuestCount,
		}
	case domain.KindLandingArea:
		if r.LandingArea == nil {
			verr.Add("landingArea", "is required for kind landing_area")
			break
		}
		detail = domain.LandingAreaDetail{
			LandingAreaID: r.LandingArea.LandingAreaID,
			PickupAt:      parseTimestamp(verr, "landingArea.pickupAt", r.LandingArea.PickupAt),
			Passengers:    r.LandingArea.Passengers,
		}
	default:
		verr.Add("kind", "unsupported reservation kind")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	return &createBooking.Request{
		UserID:     userID,
		Detail:     detail,
		TotalPrice: r.TotalPrice,
	}, nil
}

func (b *BoatRequest) toDomain(verr *domain.ValidationError, prefix string) domain.BoatDetail {
	status := domain.BoatAwaitingAssignment
	if b.BoatID != nil {
		status = domain.BoatScheduled
	}
	return domain.BoatDetail{
		BoatID:   b.BoatID,
		RideAt:   parseTimestamp(verr, prefix+"rideAt", b.RideAt),
		Adults:   b.Adults,
		Children: b.Children,
		Status:   status,
	}
}

func parseStay(verr *domain.ValidationError, prefix, checkIn, checkOut string, loc *time.Location) (time.Time, time.Time) {
	in, err := time.ParseInLocation(domain.DateFormat, checkIn, loc)
	if err != nil {
		verr.Add(prefix+"checkIn", "expected format YYYY-MM-DD")
	}
	out, err := time.ParseInLocation(domain.DateFormat, checkOut, loc)
	if err != nil {
		verr.Add(prefix+"checkOut", "expected format YYYY-MM-DD")
	}
	return in, out
}

func parseTimestamp(verr *domain.ValidationError, field, value string) time.Time {
	t, err := time.Parse(domain.DateTimeFormat, value)
	if err != nil {
		verr.Add(field, "expected RFC 3339 timestamp")
	}
	return t
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *CreateBookingResponse {
	return &CreateBookingResponse{
		BookingID:     resp.BookingID,
		Kind:          string(resp.Kind),
		Status:        string(resp.Status),
		ReferenceCode: resp.ReferenceCode,
		BoatBookingID: resp.BoatBookingID,
		ExpiresAt:     resp.ExpiresAt.Format(domain.DateTimeFormat),
		CreatedAt:     resp.CreatedAt.Format(domain.DateTimeFormat),
	}
}
