package domain

import "time"

// ReservationKind is the category of bookable resource
type ReservationKind string

const (
	KindResort      ReservationKind = "resort"
	KindHotel       ReservationKind = "hotel"
	KindBoat        ReservationKind = "boat"
	KindRestaurant  ReservationKind = "restaurant"
	KindLandingArea ReservationKind = "landing_area"
)

// Kinds lists every reservation kind
var Kinds = []ReservationKind{KindResort, KindHotel, KindBoat, KindRestaurant, KindLandingArea}

// ParseReservationKind converts a string to a known kind
func ParseReservationKind(s string) (ReservationKind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Detail is the kind-specific part of a booking
// The set of implementations is closed: every case lives in this package
type Detail interface {
	// Kind of the booking this detail belongs to
	Kind() ReservationKind
	// ResourceKey is the id of the resource whose calendar the booking occupies
	ResourceKey() *int64
	// ServicePeriod returns the service start and, for stays, the checkout
	ServicePeriod() (time.Time, *time.Time)
	// Guests is the headcount used for capacity checks
	Guests() int

	withStatus(status BookingStatus, at time.Time) Detail
}

// ResortDetail resort stay with an uploaded payment proof
type ResortDetail struct {
	ResortID         int64
	CheckIn          time.Time
	CheckOut         time.Time
	GuestCount       int
	PaymentProofPath *string
	Status           BookingStatus
}

func (d ResortDetail) Kind() ReservationKind { return KindResort }
func (d ResortDetail) ResourceKey() *int64   { id := d.ResortID; return &id }
func (d ResortDetail) Guests() int           { return d.GuestCount }

func (d ResortDetail) ServicePeriod() (time.Time, *time.Time) {
	out := d.CheckOut
	return d.CheckIn, &out
}

func (d ResortDetail) withStatus(status BookingStatus, _ time.Time) Detail {
	d.Status = status
	return d
}

// HotelDetail hotel room stay, optionally with a boat transfer
type HotelDetail struct {
	HotelID    int64
	RoomID     int64
	CheckIn    time.Time
	CheckOut   time.Time
	GuestCount int
	// BoatAddOn is only read on creation, it becomes a separate child booking
	BoatAddOn *BoatDetail
}

func (d HotelDetail) Kind() ReservationKind { return KindHotel }
func (d HotelDetail) ResourceKey() *int64   { id := d.RoomID; return &id }
func (d HotelDetail) Guests() int           { return d.GuestCount }

func (d HotelDetail) ServicePeriod() (time.Time, *time.Time) {
	out := d.CheckOut
	return d.CheckIn, &out
}

// Hotel bookings have no status of their own
func (d HotelDetail) withStatus(BookingStatus, time.Time) Detail {
	return d
}

// BoatStatus is the ride status tracked by the boat operator
type BoatStatus string

const (
	BoatAwaitingAssignment BoatStatus = "awaiting_assignment"
	BoatScheduled          BoatStatus = "scheduled"
	BoatCancelled          BoatStatus = "cancelled"
	BoatCompleted          BoatStatus = "completed"
)

// BoatDetail boat ride
type BoatDetail struct {
	BoatID   *int64
	RideAt   time.Time
	Adults   int
	Children int
	Status   BoatStatus
}

func (d BoatDetail) Kind() ReservationKind { return KindBoat }
func (d BoatDetail) Guests() int           { return d.Adults + d.Children }

func (d BoatDetail) ResourceKey() *int64 {
	if d.BoatID == nil {
		return nil
	}
	id := *d.BoatID
	return &id
}

func (d BoatDetail) ServicePeriod() (time.Time, *time.Time) {
	return d.RideAt, nil
}

func (d BoatDetail) withStatus(status BookingStatus, _ time.Time) Detail {
	switch status {
	case StatusPending:
		d.Status = BoatAwaitingAssignment
		if d.BoatID != nil {
			d.Status = BoatScheduled
		}
	case StatusAccepted, StatusConfirmed:
		d.Status = BoatScheduled
	case StatusDeclined, StatusCancelled, StatusExpired:
		d.Status = BoatCancelled
	case StatusDone:
		d.Status = BoatCompleted
	}
	return d
}

// RestaurantDetail table reservation
type RestaurantDetail struct {
	TableID     int64
	ReservedAt  time.Time
	GuestCount  int
	IsConfirmed bool
	ConfirmedAt *time.Time
}

func (d RestaurantDetail) Kind() ReservationKind { return KindRestaurant }
func (d RestaurantDetail) ResourceKey() *int64   { id := d.TableID; return &id }
func (d RestaurantDetail) Guests() int           { return d.GuestCount }

func (d RestaurantDetail) ServicePeriod() (time.Time, *time.Time) {
	return d.ReservedAt, nil
}

func (d RestaurantDetail) withStatus(status BookingStatus, at time.Time) Detail {
	switch status {
	case StatusAccepted, StatusConfirmed:
		if !d.IsConfirmed {
			d.IsConfirmed = true
			d.ConfirmedAt = &at
		}
	case StatusPending, StatusDeclined, StatusCancelled, StatusExpired:
		d.IsConfirmed = false
		d.ConfirmedAt = nil
	}
	return d
}

// LandingAreaDetail pickup request at a landing area
type LandingAreaDetail struct {
	LandingAreaID int64
	PickupAt      time.Time
	Passengers    int
	IsConfirmed   bool
}

func (d LandingAreaDetail) Kind() ReservationKind { return KindLandingArea }
func (d LandingAreaDetail) ResourceKey() *int64   { id := d.LandingAreaID; return &id }
func (d LandingAreaDetail) Guests() int           { return d.Passengers }

func (d LandingAreaDetail) ServicePeriod() (time.Time, *time.Time) {
	return d.PickupAt, nil
}

func (d LandingAreaDetail) withStatus(status BookingStatus, _ time.Time) Detail {
	switch status {
	case StatusAccepted, StatusConfirmed, StatusDone:
		d.IsConfirmed = true
	case StatusPending, StatusDeclined, StatusCancelled, StatusExpired:
		d.IsConfirmed = false
	}
	return d
}
