package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/bookings"
)

// Handler обрабатывает задачи истечения
type Handler struct {
	expirer Expirer
	logger  Logger
}

// NewHandler создает обработчик задач
func NewHandler(expirer Expirer, logger Logger) *Handler {
	return &Handler{
		expirer: expirer,
		logger:  logger,
	}
}

// Mux регистрирует обработчики по типам задач
func (h *Handler) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingExpire, h.HandleExpire)
	return mux
}

// HandleExpire истекает бронирование из задачи
// Непросроченное или уже завершенное бронирование не меняется
func (h *Handler) HandleExpire(ctx context.Context, t *asynq.Task) error {
	var payload ExpirePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Warn("HandleExpire: malformed payload: %v", err)
		return fmt.Errorf("%w: %v: %w", ErrPayload, err, asynq.SkipRetry)
	}

	booking, err := h.expirer.CheckAndExpire(ctx, payload.BookingID, bookings.TriggerTask)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			h.logger.Warn("HandleExpire: booking id=%d not found", payload.BookingID)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		h.logger.Error("HandleExpire: booking id=%d: %v", payload.BookingID, err)
		return err
	}

	h.logger.Info("HandleExpire: booking id=%d is %s", payload.BookingID, booking.Status)
	return nil
}

// ServerConfig параметры asynq сервера
type ServerConfig struct {
	Concurrency int
	Queue       string
}

// NewServer создает asynq сервер, logger используется внутренним логированием asynq
func NewServer(redis asynq.RedisConnOpt, cfg ServerConfig, logger asynq.Logger) *asynq.Server {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "default"
	}

	return asynq.NewServer(redis, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 10,
		},
		Logger: logger,
	})
}
