package create_booking

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Request модель запроса на создание бронирования
// Detail определяет тип бронирования, HotelDetail.BoatAddOn создает дочернюю поездку на лодке
type Request struct {
	UserID     int64
	Detail     domain.Detail
	TotalPrice float64
}

// Response модель ответа с созданным бронированием
type Response struct {
	BookingID     int64
	Kind          domain.ReservationKind
	Status        domain.BookingStatus
	ReferenceCode *string
	BoatBookingID *int64    // ID дочерней поездки на лодке (отель с трансфером)
	ExpiresAt     time.Time // дедлайн: до него возможен возврат, после него pending истекает
	CreatedAt     time.Time
}
