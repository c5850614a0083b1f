package booking

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// selectColumns агрегат и все варианты детали, заполнен только вариант своего kind
var selectColumns = []string{
	"b.id",
	"b.user_id",
	"b.kind",
	"b.resource_id",
	"b.parent_booking_id",
	"b.service_date",
	"b.checkout_date",
	"b.guest_count",
	"b.total_price",
	"b.status",
	"b.reference_code",
	"b.created_at",
	"b.updated_at",

	"rb.resort_id",
	"rb.check_in",
	"rb.check_out",
	"rb.guests",
	"rb.payment_proof_path",
	"rb.status",

	"hb.hotel_id",
	"hb.room_id",
	"hb.check_in",
	"hb.check_out",
	"hb.guests",

	"bb.boat_id",
	"bb.ride_at",
	"bb.adults",
	"bb.children",
	"bb.status",

	"tb.table_id",
	"tb.reserved_at",
	"tb.guests",
	"tb.is_confirmed",
	"tb.confirmed_at",

	"la.landing_area_id",
	"la.pickup_at",
	"la.passengers",
	"la.is_confirmed",
}

var detailJoins = []string{
	"resort_bookings rb ON rb.booking_id = b.id",
	"hotel_bookings hb ON hb.booking_id = b.id",
	"boat_bookings bb ON bb.booking_id = b.id",
	"restaurant_bookings tb ON tb.booking_id = b.id",
	"landing_area_requests la ON la.booking_id = b.id",
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type bookingRow struct {
	id              int64
	userID          int64
	kind            string
	resourceID      sql.NullInt64
	parentBookingID sql.NullInt64
	serviceDate     sql.NullTime
	checkoutDate    sql.NullTime
	guestCount      int
	totalPrice      float64
	status          string
	referenceCode   sql.NullString
	createdAt       sql.NullTime
	updatedAt       sql.NullTime

	resortID        sql.NullInt64
	resortCheckIn   sql.NullTime
	resortCheckOut  sql.NullTime
	resortGuests    sql.NullInt64
	resortProofPath sql.NullString
	resortStatus    sql.NullString

	hotelID       sql.NullInt64
	roomID        sql.NullInt64
	hotelCheckIn  sql.NullTime
	hotelCheckOut sql.NullTime
	hotelGuests   sql.NullInt64

	boatID       sql.NullInt64
	boatRideAt   sql.NullTime
	boatAdults   sql.NullInt64
	boatChildren sql.NullInt64
	boatStatus   sql.NullString

	tableID          sql.NullInt64
	tableReservedAt  sql.NullTime
	tableGuests      sql.NullInt64
	tableConfirmed   sql.NullBool
	tableConfirmedAt sql.NullTime

	landingAreaID    sql.NullInt64
	landingPickupAt  sql.NullTime
	landingPassenger sql.NullInt64
	landingConfirmed sql.NullBool
}

func scanBooking(scanner rowScanner) (*domain.Booking, error) {
	var row bookingRow
	err := scanner.Scan(
		&row.id,
		&row.userID,
		&row.kind,
		&row.resourceID,
		&row.parentBookingID,
		&row.serviceDate,
		&row.checkoutDate,
		&row.guestCount,
		&row.totalPrice,
		&row.status,
		&row.referenceCode,
		&row.createdAt,
		&row.updatedAt,

		&row.resortID,
		&row.resortCheckIn,
		&row.resortCheckOut,
		&row.resortGuests,
		&row.resortProofPath,
		&row.resortStatus,

		&row.hotelID,
		&row.roomID,
		&row.hotelCheckIn,
		&row.hotelCheckOut,
		&row.hotelGuests,

		&row.boatID,
		&row.boatRideAt,
		&row.boatAdults,
		&row.boatChildren,
		&row.boatStatus,

		&row.tableID,
		&row.tableReservedAt,
		&row.tableGuests,
		&row.tableConfirmed,
		&row.tableConfirmedAt,

		&row.landingAreaID,
		&row.landingPickupAt,
		&row.landingPassenger,
		&row.landingConfirmed,
	)
	if err != nil {
		return nil, err
	}

	return row.toDomain()
}

func (row *bookingRow) toDomain() (*domain.Booking, error) {
	b := &domain.Booking{
		ID:              row.id,
		UserID:          row.userID,
		Kind:            domain.ReservationKind(row.kind),
		ResourceID:      nullInt64Ptr(row.resourceID),
		ParentBookingID: nullInt64Ptr(row.parentBookingID),
		ServiceDate:     row.serviceDate.Time,
		CheckoutDate:    nullTimePtr(row.checkoutDate),
		GuestCount:      row.guestCount,
		TotalPrice:      row.totalPrice,
		Status:          domain.BookingStatus(row.status),
		CreatedAt:       row.createdAt.Time,
		UpdatedAt:       row.updatedAt.Time,
	}
	if row.referenceCode.Valid {
		code := row.referenceCode.String
		b.ReferenceCode = &code
	}

	detail, err := row.detail(b.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: booking id=%d: %v", ErrUnknownDetail, b.ID, err)
	}
	b.Detail = detail

	return b, nil
}

func (row *bookingRow) detail(kind domain.ReservationKind) (domain.Detail, error) {
	switch kind {
	case domain.KindResort:
		if !row.resortID.Valid {
			return nil, fmt.Errorf("resort detail is missing")
		}
		d := domain.ResortDetail{
			ResortID:   row.resortID.Int64,
			CheckIn:    row.resortCheckIn.Time,
			CheckOut:   row.resortCheckOut.Time,
			GuestCount: int(row.resortGuests.Int64),
			Status:     domain.BookingStatus(row.resortStatus.String),
		}
		if row.resortProofPath.Valid {
			path := row.resortProofPath.String
			d.PaymentProofPath = &path
		}
		return d, nil

	case domain.KindHotel:
		if !row.hotelID.Valid {
			return nil, fmt.Errorf("hotel detail is missing")
		}
		return domain.HotelDetail{
			HotelID:    row.hotelID.Int64,
			RoomID:     row.roomID.Int64,
			CheckIn:    row.hotelCheckIn.Time,
			CheckOut:   row.hotelCheckOut.Time,
			GuestCount: int(row.hotelGuests.Int64),
		}, nil

	case domain.KindBoat:
		if !row.boatRideAt.Valid {
			return nil, fmt.Errorf("boat detail is missing")
		}
		return domain.BoatDetail{
			BoatID:   nullInt64Ptr(row.boatID),
			RideAt:   row.boatRideAt.Time,
			Adults:   int(row.boatAdults.Int64),
			Children: int(row.boatChildren.Int64),
			Status:   domain.BoatStatus(row.boatStatus.String),
		}, nil

	case domain.KindRestaurant:
		if !row.tableID.Valid {
			return nil, fmt.Errorf("restaurant detail is missing")
		}
		return domain.RestaurantDetail{
			TableID:     row.tableID.Int64,
			ReservedAt:  row.tableReservedAt.Time,
			GuestCount:  int(row.tableGuests.Int64),
			IsConfirmed: row.tableConfirmed.Bool,
			ConfirmedAt: nullTimePtr(row.tableConfirmedAt),
		}, nil

	case domain.KindLandingArea:
		if !row.landingAreaID.Valid {
			return nil, fmt.Errorf("landing area detail is missing")
		}
		return domain.LandingAreaDetail{
			LandingAreaID: row.landingAreaID.Int64,
			PickupAt:      row.landingPickupAt.Time,
			Passengers:    int(row.landingPassenger.Int64),
			IsConfirmed:   row.landingConfirmed.Bool,
		}, nil
	}

	return nil, fmt.Errorf("kind %q", kind)
}

func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings: %v", ErrScanRow, err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
