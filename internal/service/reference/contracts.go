package reference

import (
	"context"
	"time"
)

// CounterStore атомарный счетчик номеров в пределах scope и календарного дня
// Next должен вернуть 1 для первого вызова за день и строго возрастать внутри дня,
// два конкурентных вызова не могут получить одно и то же значение
type CounterStore interface {
	Next(ctx context.Context, scopeKey string, day time.Time) (int64, error)
}

// Metrics метрики выдачи номеров
type Metrics interface {
	ReferenceAllocated(kind string, err error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
