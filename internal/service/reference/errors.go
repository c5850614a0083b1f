package reference

import "errors"

var (
	// ErrUnsupportedKind возвращается для типов бронирования без номера брони
	ErrUnsupportedKind = errors.New("reference: kind has no reference code")

	// ErrAllocate возвращается при ошибке хранилища счетчиков
	ErrAllocate = errors.New("reference: failed to allocate reference code")
)
