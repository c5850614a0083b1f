// Package expiration runs the periodic sweep that expires overdue pending bookings.
package expiration

import (
	"context"
	"errors"
	"time"
)

// Worker периодически истекает просроченные pending бронирования
type Worker struct {
	expirer   Expirer
	locker    Locker
	interval  time.Duration
	batchSize int
	logger    Logger
}

// NewWorker создает воркер, locker может быть nil для одиночного инстанса
func NewWorker(expirer Expirer, locker Locker, interval time.Duration, batchSize int, logger Logger) *Worker {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Worker{
		expirer:   expirer,
		locker:    locker,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Start запускает цикл проходов, блокируется до отмены ctx
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Expiration worker started, interval=%s, batch=%d", w.interval, w.batchSize)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Expiration worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("Expiration worker: sweep failed: %v", err)
			}
		}
	}
}

// RunOnce выполняет один проход под блокировкой
// Пачки обрабатываются, пока проход находит полную пачку кандидатов
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	release, err := w.locker.Lock(ctx)
	if err != nil {
		if errors.Is(err, ErrLockHeld) {
			w.logger.Debug("Expiration worker: sweep skipped, lock is held")
			return 0, nil
		}
		return 0, err
	}
	defer release()

	total := 0
	for {
		expired, err := w.expirer.ExpireOverdue(ctx, w.batchSize)
		total += expired
		if err != nil {
			return total, err
		}
		if expired < w.batchSize || w.batchSize <= 0 {
			break
		}
	}

	if total > 0 {
		w.logger.Info("Expiration worker: expired %d bookings", total)
	}
	return total, nil
}
