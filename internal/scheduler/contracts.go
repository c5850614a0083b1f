package scheduler

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Enqueuer постановка задач в asynq
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Expirer проверка и истечение бронирования
type Expirer interface {
	CheckAndExpire(ctx context.Context, id int64, trigger string) (*domain.Booking, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
