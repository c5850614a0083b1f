package domain

// Time format constants
const (
	DateFormat     = "2006-01-02" // YYYY-MM-DD
	DateTimeFormat = "2006-01-02T15:04:05Z07:00"
	ReferenceDay   = "20060102" // day part of a reference code
)

// Business validation constants
const (
	MaxGuestsPerBooking = 100
	MaxStayNights       = 60
	MaxReasonLength     = 500
	MaxListLimit        = 500
)

// Reference code prefixes per kind
const (
	ReferencePrefixResort = "RST"
	ReferencePrefixHotel  = "HTL"
)

// ReferencePrefix returns the prefix for kinds that receive a reference code
func ReferencePrefix(kind ReservationKind) (string, bool) {
	switch kind {
	case KindResort:
		return ReferencePrefixResort, true
	case KindHotel:
		return ReferencePrefixHotel, true
	}
	return "", false
}

// InactiveStatuses список статусов неактивных бронирований
// Такие бронирования не занимают ресурс при расчете доступности
var InactiveStatuses = []BookingStatus{
	StatusDeclined,
	StatusCancelled,
	StatusExpired,
}
