package reference

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Service выдает номера брони вида <PREFIX>-<YYYYMMDD>-<scopeID>-<NNNN>
type Service struct {
	store    CounterStore
	location *time.Location
	metrics  Metrics
	logger   Logger
}

// NewService создает сервис выдачи номеров
// location определяет границу календарного дня, после которой счетчик начинается с 1
func NewService(store CounterStore, location *time.Location, metrics Metrics, logger Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		store:    store,
		location: location,
		metrics:  metrics,
		logger:   logger,
	}
}

// ScopeKey ключ счетчика: тип бронирования и id отеля/курорта
func ScopeKey(kind domain.ReservationKind, scopeID int64) string {
	return fmt.Sprintf("%s:%d", kind, scopeID)
}

// Format собирает номер брони
func Format(prefix string, day time.Time, scopeID, counter int64) string {
	return fmt.Sprintf("%s-%s-%d-%04d", prefix, day.Format(domain.ReferenceDay), scopeID, counter)
}

// Allocate выдает следующий номер для scope на день now
// Если в контексте есть транзакция, postgres-хранилище выполняет инкремент в ней
func (s *Service) Allocate(ctx context.Context, kind domain.ReservationKind, scopeID int64, now time.Time) (string, error) {
	prefix, ok := domain.ReferencePrefix(kind)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	day := domain.StartOfDay(now.In(s.location))
	scopeKey := ScopeKey(kind, scopeID)

	counter, err := s.store.Next(ctx, scopeKey, day)
	s.metrics.ReferenceAllocated(string(kind), err)
	if err != nil {
		s.logger.Error("Allocate: counter store failed for scope=%s, day=%s: %v", scopeKey, day.Format(domain.DateFormat), err)
		return "", fmt.Errorf("%w: %v", ErrAllocate, err)
	}

	code := Format(prefix, day, scopeID, counter)
	s.logger.Info("Allocate: issued %s for scope=%s", code, scopeKey)
	return code, nil
}

type noopMetrics struct{}

func (noopMetrics) ReferenceAllocated(string, error) {}
