package bookings

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках сервиса вне транзакции
	ErrInternal = errors.New("service: internal error")
)
