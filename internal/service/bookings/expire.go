package bookings

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/policy"
	"github.com/m04kA/SMC-ReservationService/internal/service/lifecycle"
)

// CheckAndExpire переводит pending бронирование с истекшим сроком в expired
// Идемпотентна: повторный вызов и вызов для непросроченного бронирования ничего не меняют
// Возвращает актуальное состояние бронирования
func (s *Service) CheckAndExpire(ctx context.Context, id int64, trigger string) (*domain.Booking, error) {
	now := s.timeProvider.Now()

	// Быстрый путь без транзакции
	booking, err := s.getForUpdate(ctx, id)
	if err != nil {
		if domain.IsDomainError(err) {
			return nil, err
		}
		s.logger.Error("CheckAndExpire: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: CheckAndExpire - repository error: %v", ErrInternal, err)
	}
	if !policy.ShouldExpire(booking, now) {
		return booking, nil
	}

	// Перечитываем строку с блокировкой: параллельный переход мог успеть раньше
	var changes []lifecycle.Change
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		b, err := s.getForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		booking = b
		if !policy.ShouldExpire(b, now) {
			return nil
		}
		changes, err = s.lifecycle.Apply(txCtx, b, domain.StatusExpired, now)
		return err
	})
	if err != nil {
		s.logger.Error("CheckAndExpire: booking id=%d failed: %v", id, err)
		return nil, domain.AsTransactionError(err)
	}

	if len(changes) > 0 {
		s.logger.Info("CheckAndExpire: booking id=%d expired (trigger=%s)", id, trigger)
	}
	s.afterCommit(ctx, changes, trigger)
	return booking, nil
}

// ExpireOverdue переводит в expired просроченные pending бронирования, не более limit за вызов
// Возвращает количество истекших бронирований
func (s *Service) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	now := s.timeProvider.Now()

	// Репозиторий отбирает только просроченные, страница не забивается живыми бронированиями
	candidates, err := s.bookingRepo.ListOverdue(ctx, now, limit)
	if err != nil {
		s.logger.Error("ExpireOverdue: repository error: %v", err)
		return 0, fmt.Errorf("%w: ExpireOverdue - repository error: %v", ErrInternal, err)
	}

	expired := 0
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		if !policy.ShouldExpire(candidate, now) {
			continue
		}

		b, err := s.CheckAndExpire(ctx, candidate.ID, TriggerSweep)
		if err != nil {
			s.logger.Warn("ExpireOverdue: booking id=%d: %v", candidate.ID, err)
			continue
		}
		if b.Status == domain.StatusExpired {
			expired++
		}
	}

	if expired > 0 {
		s.logger.Info("ExpireOverdue: expired %d of %d candidates", expired, len(candidates))
	}
	return expired, nil
}
