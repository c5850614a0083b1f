package models

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/policy"
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	Actor  domain.Actor
	Reason *string
}

// UpdateStatusRequest запрос на смену статуса бронирования
type UpdateStatusRequest struct {
	Actor  domain.Actor
	Status string
}

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	Actor  domain.Actor
	UserID int64
	Status *string
	Kind   *string
}

// GetResourceBookingsRequest запрос на получение бронирований ресурса
type GetResourceBookingsRequest struct {
	Actor           domain.Actor
	Kind            string
	ResourceID      int64
	From            *time.Time // Начало периода (опционально)
	To              *time.Time // Конец периода, не включительно (опционально)
	Status          *string    // Фильтр по статусу (опционально)
	IncludeInactive bool       // Включить отмененные, отклоненные и истекшие
}

// Response модели

// CancelBookingResponse результат отмены
type CancelBookingResponse struct {
	Booking      *BookingResponse `json:"booking"`
	Refunded     bool             `json:"refunded"`
	RefundAmount *float64         `json:"refundAmount,omitempty"`
}

// ResortDetailResponse детали бронирования курорта
type ResortDetailResponse struct {
	ResortID         int64   `json:"resortId"`
	CheckIn          string  `json:"checkIn"`
	CheckOut         string  `json:"checkOut"`
	PaymentProofPath *string `json:"paymentProofPath,omitempty"`
	Status           string  `json:"status"`
}

// HotelDetailResponse детали бронирования отеля
type HotelDetailResponse struct {
	HotelID  int64  `json:"hotelId"`
	RoomID   int64  `json:"roomId"`
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

// BoatDetailResponse детали поездки на лодке
type BoatDetailResponse struct {
	BoatID   *int64 `json:"boatId,omitempty"`
	RideAt   string `json:"rideAt"`
	Adults   int    `json:"adults"`
	Children int    `json:"children"`
	Status   string `json:"status"`
}

// RestaurantDetailResponse детали бронирования столика
type RestaurantDetailResponse struct {
	TableID     int64   `json:"tableId"`
	ReservedAt  string  `json:"reservedAt"`
	IsConfirmed bool    `json:"isConfirmed"`
	ConfirmedAt *string `json:"confirmedAt,omitempty"`
}

// LandingAreaDetailResponse детали заявки на посадочную площадку
type LandingAreaDetailResponse struct {
	LandingAreaID int64  `json:"landingAreaId"`
	PickupAt      string `json:"pickupAt"`
	Passengers    int    `json:"passengers"`
	IsConfirmed   bool   `json:"isConfirmed"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"userId"`
	Kind            string  `json:"kind"`
	ResourceID      *int64  `json:"resourceId,omitempty"`
	ParentBookingID *int64  `json:"parentBookingId,omitempty"`
	ServiceDate     string  `json:"serviceDate"`            // ISO 8601
	CheckoutDate    *string `json:"checkoutDate,omitempty"` // ISO 8601
	GuestCount      int     `json:"guestCount"`
	TotalPrice      float64 `json:"totalPrice"`
	Status          string  `json:"status"`
	ReferenceCode   *string `json:"referenceCode,omitempty"`
	ExpiresAt       string  `json:"expiresAt"` // дедлайн отмены/возврата и автоистечения

	Resort      *ResortDetailResponse      `json:"resort,omitempty"`
	Hotel       *HotelDetailResponse       `json:"hotel,omitempty"`
	Boat        *BoatDetailResponse        `json:"boat,omitempty"`
	Restaurant  *RestaurantDetailResponse  `json:"restaurant,omitempty"`
	LandingArea *LandingAreaDetailResponse `json:"landingArea,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

func formatTime(t time.Time) string {
	return t.Format(domain.DateTimeFormat)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		Kind:            string(b.Kind),
		ResourceID:      b.ResourceID,
		ParentBookingID: b.ParentBookingID,
		ServiceDate:     formatTime(b.ServiceDate),
		CheckoutDate:    formatTimePtr(b.CheckoutDate),
		GuestCount:      b.GuestCount,
		TotalPrice:      b.TotalPrice,
		Status:          string(b.Status),
		ReferenceCode:   b.ReferenceCode,
		ExpiresAt:       formatTime(policy.BookingDeadline(b)),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}

	switch d := b.Detail.(type) {
	case domain.ResortDetail:
		resp.Resort = &ResortDetailResponse{
			ResortID:         d.ResortID,
			CheckIn:          formatTime(d.CheckIn),
			CheckOut:         formatTime(d.CheckOut),
			PaymentProofPath: d.PaymentProofPath,
			Status:           string(d.Status),
		}
	case domain.HotelDetail:
		resp.Hotel = &HotelDetailResponse{
			HotelID:  d.HotelID,
			RoomID:   d.RoomID,
			CheckIn:  formatTime(d.CheckIn),
			CheckOut: formatTime(d.CheckOut),
		}
	case domain.BoatDetail:
		resp.Boat = &BoatDetailResponse{
			BoatID:   d.BoatID,
			RideAt:   formatTime(d.RideAt),
			Adults:   d.Adults,
			Children: d.Children,
			Status:   string(d.Status),
		}
	case domain.RestaurantDetail:
		resp.Restaurant = &RestaurantDetailResponse{
			TableID:     d.TableID,
			ReservedAt:  formatTime(d.ReservedAt),
			IsConfirmed: d.IsConfirmed,
			ConfirmedAt: formatTimePtr(d.ConfirmedAt),
		}
	case domain.LandingAreaDetail:
		resp.LandingArea = &LandingAreaDetailResponse{
			LandingAreaID: d.LandingAreaID,
			PickupAt:      formatTime(d.PickupAt),
			Passengers:    d.Passengers,
			IsConfirmed:   d.IsConfirmed,
		}
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}
