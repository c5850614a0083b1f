package create_booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

func TestToUseCaseRequest_HotelWithBoat(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	req := CreateBookingRequest{
		Kind:       "hotel",
		TotalPrice: 300,
		Hotel: &HotelRequest{
			HotelID:    3,
			RoomID:     31,
			CheckIn:    "2025-03-02",
			CheckOut:   "2025-03-04",
			GuestCount: 2,
			Boat:       &BoatRequest{RideAt: "2025-03-02T09:00:00+07:00", Adults: 2},
		},
	}

	got, err := req.ToUseCaseRequest(42, loc)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)

	hotel, ok := got.Detail.(domain.HotelDetail)
	require.True(t, ok)
	assert.True(t, hotel.CheckIn.Equal(time.Date(2025, 3, 2, 0, 0, 0, 0, loc)))
	require.NotNil(t, hotel.BoatAddOn)
	assert.Nil(t, hotel.BoatAddOn.BoatID)
	assert.Equal(t, domain.BoatAwaitingAssignment, hotel.BoatAddOn.Status)
	assert.Equal(t, 2, hotel.BoatAddOn.Adults)
}

func TestToUseCaseRequest_MissingBlock(t *testing.T) {
	req := CreateBookingRequest{Kind: "restaurant"}
	_, err := req.ToUseCaseRequest(42, time.UTC)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "restaurant")
}

func TestToUseCaseRequest_BadTimestamp(t *testing.T) {
	req := CreateBookingRequest{
		Kind:        "landing_area",
		LandingArea: &LandingAreaRequest{LandingAreaID: 1, PickupAt: "tomorrow", Passengers: 2},
	}
	_, err := req.ToUseCaseRequest(42, time.UTC)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "landingArea.pickupAt")
}
