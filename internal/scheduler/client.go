// Package scheduler schedules and handles delayed booking expiry tasks on asynq.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

const (
	// TypeBookingExpire тип задачи истечения бронирования
	TypeBookingExpire = "booking:expire"

	// expireDelay задача ставится чуть позже дедлайна, чтобы ShouldExpire уже вернул true
	expireDelay = time.Second

	maxRetry = 5
)

// ExpirePayload тело задачи истечения
type ExpirePayload struct {
	BookingID int64 `json:"bookingId"`
}

// Client планирует задачи истечения бронирований
type Client struct {
	enqueuer Enqueuer
	queue    string
	logger   Logger
}

// NewClient создает клиент планировщика
func NewClient(enqueuer Enqueuer, queue string, logger Logger) *Client {
	return &Client{
		enqueuer: enqueuer,
		queue:    queue,
		logger:   logger,
	}
}

// TaskID идентификатор задачи истечения, один на бронирование
func TaskID(bookingID int64) string {
	return "expire:" + strconv.FormatInt(bookingID, 10)
}

// ScheduleExpiry ставит задачу истечения бронирования на момент at
// Повторная постановка для того же бронирования игнорируется
func (c *Client) ScheduleExpiry(ctx context.Context, bookingID int64, at time.Time) error {
	payload, err := json.Marshal(ExpirePayload{BookingID: bookingID})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPayload, err)
	}

	opts := []asynq.Option{
		asynq.TaskID(TaskID(bookingID)),
		asynq.ProcessAt(at.Add(expireDelay)),
		asynq.MaxRetry(maxRetry),
	}
	if c.queue != "" {
		opts = append(opts, asynq.Queue(c.queue))
	}

	info, err := c.enqueuer.EnqueueContext(ctx, asynq.NewTask(TypeBookingExpire, payload), opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		c.logger.Error("ScheduleExpiry: booking id=%d: %v", bookingID, err)
		return fmt.Errorf("%w: booking id=%d: %v", ErrEnqueue, bookingID, err)
	}

	c.logger.Info("ScheduleExpiry: booking id=%d scheduled at %s (task=%s)", bookingID, at.Format(time.RFC3339), info.ID)
	return nil
}
