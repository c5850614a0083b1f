package domain

import "time"

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusConfirmed BookingStatus = "confirmed"
	StatusDeclined  BookingStatus = "declined"
	StatusCancelled BookingStatus = "cancelled"
	StatusExpired   BookingStatus = "expired"
	StatusDone      BookingStatus = "done"
)

// transitions допустимые переходы состояний, терминальные статусы переходов не имеют
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusAccepted, StatusConfirmed, StatusDeclined, StatusCancelled, StatusExpired},
	StatusAccepted:  {StatusCancelled, StatusDone},
	StatusConfirmed: {StatusCancelled, StatusDone},
}

// ParseBookingStatus converts a string to a known status
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch status := BookingStatus(s); status {
	case StatusPending, StatusAccepted, StatusConfirmed, StatusDeclined, StatusCancelled, StatusExpired, StatusDone:
		return status, true
	}
	return "", false
}

// CanTransition reports whether the state machine allows from -> to
func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for statuses without outgoing transitions
func (s BookingStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsInactive returns true for statuses that no longer occupy a resource
func (s BookingStatus) IsInactive() bool {
	for _, inactive := range InactiveStatuses {
		if s == inactive {
			return true
		}
	}
	return false
}

// Booking is the reservation aggregate: generic row plus exactly one kind-specific detail
type Booking struct {
	ID              int64
	UserID          int64
	Kind            ReservationKind
	ResourceID      *int64 // nil for a boat ride that is not assigned to a boat yet
	ParentBookingID *int64 // set for a boat add-on of a hotel stay
	ServiceDate     time.Time
	CheckoutDate    *time.Time // stay-based kinds only
	GuestCount      int
	TotalPrice      float64
	Status          BookingStatus
	ReferenceCode   *string
	Detail          Detail

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBooking builds a pending booking whose generic columns are derived from the detail
func NewBooking(userID int64, detail Detail, totalPrice float64, now time.Time) *Booking {
	start, end := detail.ServicePeriod()
	b := &Booking{
		UserID:       userID,
		Kind:         detail.Kind(),
		ResourceID:   detail.ResourceKey(),
		ServiceDate:  start,
		CheckoutDate: end,
		GuestCount:   detail.Guests(),
		TotalPrice:   totalPrice,
		Status:       StatusPending,
		Detail:       detail.withStatus(StatusPending, now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return b
}

// SetStatus moves the aggregate and mirrors the status into its detail
// The caller is responsible for checking CanTransition first
func (b *Booking) SetStatus(status BookingStatus, at time.Time) {
	b.Status = status
	b.UpdatedAt = at
	if b.Detail != nil {
		b.Detail = b.Detail.withStatus(status, at)
	}
}

// IsOwnedBy returns true if the booking belongs to the user
func (b *Booking) IsOwnedBy(userID int64) bool {
	return b.UserID == userID
}

// IsActive returns true if the booking still occupies its resource
func (b *Booking) IsActive() bool {
	return !b.Status.IsInactive()
}

// Occupancy returns the half-open day interval [start, end) the booking occupies
// Single-day kinds occupy exactly their service day
func (b *Booking) Occupancy() (time.Time, time.Time) {
	return b.OccupancyIn(b.ServiceDate.Location())
}

// OccupancyIn is Occupancy with days taken in loc
func (b *Booking) OccupancyIn(loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(b.ServiceDate.In(loc))
	if b.CheckoutDate != nil {
		end := StartOfDay(b.CheckoutDate.In(loc))
		if end.After(start) {
			return start, end
		}
	}
	return start, start.AddDate(0, 0, 1)
}

// Summary returns the calendar view of the booking
func (b *Booking) Summary(loc *time.Location) BookingSummary {
	start, end := b.OccupancyIn(loc)
	return BookingSummary{
		BookingID:     b.ID,
		ReferenceCode: b.ReferenceCode,
		CheckIn:       start,
		CheckOut:      end,
		GuestCount:    b.GuestCount,
		Status:        b.Status,
		TotalPrice:    b.TotalPrice,
	}
}

// BookingFilter фильтр для списков бронирований
type BookingFilter struct {
	UserID          *int64
	Kind            *ReservationKind
	ResourceID      *int64
	From            *time.Time     // начало периода занятости (включительно)
	To              *time.Time     // конец периода занятости (не включительно)
	Status          *BookingStatus // фильтр по статусу (опционально)
	IncludeInactive bool           // включать отмененные, отклоненные и истекшие
	Limit           int
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
