package domain

// Resource bookable resource master data (resort, hotel room, boat, table, landing area)
// Master data is maintained elsewhere, the reservation core only reads it
type Resource struct {
	Kind ReservationKind
	ID   int64
	// ParentID hotel id for a hotel room
	ParentID *int64
	Name     string
	// GuestCapacity max headcount of a single booking
	GuestCapacity int
	// UnitCapacity how many bookings may occupy the resource on one day
	UnitCapacity int
	Maintenance  bool
}

// CapacityPerDay returns the unit capacity, at least one
func (r *Resource) CapacityPerDay() int {
	if r.UnitCapacity < 1 {
		return 1
	}
	return r.UnitCapacity
}

// ResourceRef identifies a resource within its kind
type ResourceRef struct {
	Kind ReservationKind
	ID   int64
}
