package expiration

import "context"

// Expirer массовое истечение просроченных бронирований
type Expirer interface {
	ExpireOverdue(ctx context.Context, limit int) (int, error)
}

// Locker блокировка, исключающая параллельные проходы нескольких инстансов
type Locker interface {
	// Lock возвращает ErrLockHeld, если блокировку держит другой инстанс
	Lock(ctx context.Context) (release func(), err error)
}

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
