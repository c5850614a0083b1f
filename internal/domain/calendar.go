package domain

import "time"

// DayStatusKind availability of a resource on one day
type DayStatusKind string

const (
	DayAvailable   DayStatusKind = "available"
	DayLimited     DayStatusKind = "limited"
	DayFullyBooked DayStatusKind = "fully_booked"
	DayMaintenance DayStatusKind = "maintenance"
)

// DayStatus occupancy of a resource on one calendar day
type DayStatus struct {
	Date          time.Time
	Status        DayStatusKind
	BookedCount   int
	TotalCapacity int
	Bookings      []BookingSummary
}

// Remaining returns how many more bookings fit on the day
func (d *DayStatus) Remaining() int {
	if d.Status == DayMaintenance {
		return 0
	}
	if left := d.TotalCapacity - d.BookedCount; left > 0 {
		return left
	}
	return 0
}

// BookingSummary booking as shown in a calendar cell
type BookingSummary struct {
	BookingID     int64
	ReferenceCode *string
	CheckIn       time.Time
	CheckOut      time.Time
	GuestCount    int
	Status        BookingStatus
	TotalPrice    float64
}
