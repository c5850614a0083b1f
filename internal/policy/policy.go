// Package policy computes the time window that drives expiry, cancellation
// and refund eligibility of a booking. All call sites go through this package.
package policy

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Tier boundaries, the upper bound of each tier is inclusive
const (
	ShortLeadTime  = 12 * time.Hour
	MediumLeadTime = 24 * time.Hour

	ShortWindow  = 6 * time.Hour
	MediumWindow = 12 * time.Hour
	LongWindow   = 48 * time.Hour
)

// Window returns the cancellation window for a lead time (service date minus creation time)
// Lead time is compared exactly, without rounding to whole hours
func Window(leadTime time.Duration) time.Duration {
	switch {
	case leadTime <= ShortLeadTime:
		return ShortWindow
	case leadTime <= MediumLeadTime:
		return MediumWindow
	default:
		return LongWindow
	}
}

// Deadline returns createdAt + Window(serviceDate - createdAt)
func Deadline(createdAt, serviceDate time.Time) time.Time {
	return createdAt.Add(Window(serviceDate.Sub(createdAt)))
}

// BookingDeadline deadline of a booking
func BookingDeadline(b *domain.Booking) time.Time {
	return Deadline(b.CreatedAt, b.ServiceDate)
}

// ShouldExpire pending booking past its deadline
func ShouldExpire(b *domain.Booking, now time.Time) bool {
	return b.Status == domain.StatusPending && now.After(BookingDeadline(b))
}

// Cutoff pending bookings with lead time up to MaxLead created before CreatedBefore are overdue
// Zero MaxLead matches any lead time
type Cutoff struct {
	MaxLead       time.Duration
	CreatedBefore time.Time
}

// OverdueCutoffs lists per-tier cutoffs: a pending booking is overdue at now iff it matches any of them
// Storage queries use it to select only bookings past their deadline
func OverdueCutoffs(now time.Time) []Cutoff {
	return []Cutoff{
		{MaxLead: ShortLeadTime, CreatedBefore: now.Add(-ShortWindow)},
		{MaxLead: MediumLeadTime, CreatedBefore: now.Add(-MediumWindow)},
		{CreatedBefore: now.Add(-LongWindow)},
	}
}

// Matches reports whether a booking falls under the cutoff
func (c Cutoff) Matches(createdAt, serviceDate time.Time) bool {
	if c.MaxLead > 0 && serviceDate.Sub(createdAt) > c.MaxLead {
		return false
	}
	return createdAt.Before(c.CreatedBefore)
}

// CanCustomerCancel customers may cancel until the service date arrives
func CanCustomerCancel(b *domain.Booking, now time.Time) bool {
	return now.Before(b.ServiceDate)
}

// WithinRefundWindow refund is allowed while now <= deadline
func WithinRefundWindow(b *domain.Booking, now time.Time) bool {
	return !now.After(BookingDeadline(b))
}
