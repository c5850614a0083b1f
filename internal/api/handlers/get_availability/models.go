package get_availability

import (
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	getAvailability "github.com/m04kA/SMC-ReservationService/internal/usecase/get_availability"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	Kind          string              `json:"kind"`
	ResourceID    int64               `json:"resourceId"`
	Month         int                 `json:"month"`
	Year          int                 `json:"year"`
	TotalCapacity int                 `json:"totalCapacity"`
	Days          []DayStatusResponse `json:"days"`
}

// DayStatusResponse статус одного дня
type DayStatusResponse struct {
	Date        string                   `json:"date"` // YYYY-MM-DD
	Status      string                   `json:"status"`
	BookedCount int                      `json:"bookedCount"`
	Remaining   int                      `json:"remaining"`
	Bookings    []BookingSummaryResponse `json:"bookings,omitempty"`
}

// BookingSummaryResponse бронирование в ячейке календаря
type BookingSummaryResponse struct {
	BookingID     int64   `json:"bookingId"`
	ReferenceCode *string `json:"referenceCode,omitempty"`
	CheckIn       string  `json:"checkIn"`
	CheckOut      string  `json:"checkOut"`
	GuestCount    int     `json:"guestCount"`
	Status        string  `json:"status"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailability.Response) *AvailabilityResponse {
	days := make([]DayStatusResponse, 0, len(resp.Days))
	for i := range resp.Days {
		day := &resp.Days[i]
		out := DayStatusResponse{
			Date:        day.Date.Format(domain.DateFormat),
			Status:      string(day.Status),
			BookedCount: day.BookedCount,
			Remaining:   day.Remaining(),
		}
		for _, b := range day.Bookings {
			out.Bookings = append(out.Bookings, BookingSummaryResponse{
				BookingID:     b.BookingID,
				ReferenceCode: b.ReferenceCode,
				CheckIn:       b.CheckIn.Format(domain.DateTimeFormat),
				CheckOut:      b.CheckOut.Format(domain.DateTimeFormat),
				GuestCount:    b.GuestCount,
				Status:        string(b.Status),
			})
		}
		days = append(days, out)
	}

	return &AvailabilityResponse{
		Kind:          string(resp.Kind),
		ResourceID:    resp.ResourceID,
		Month:         resp.Month,
		Year:          resp.Year,
		TotalCapacity: resp.TotalCapacity,
		Days:          days,
	}
}
