package refcounter

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

// upsertSuffix сброс на новый день и инкремент в одном выражении
// Конкурентные вызовы для одного scope_key сериализуются блокировкой строки при ON CONFLICT
const upsertSuffix = `ON CONFLICT (scope_key) DO UPDATE SET
	value = CASE WHEN reference_counters.reset_day = EXCLUDED.reset_day THEN reference_counters.value + 1 ELSE 1 END,
	reset_day = EXCLUDED.reset_day
RETURNING value`

// Repository счетчики номеров брони в postgres
type Repository struct {
	db DBExecutor
}

// NewRepository создает репозиторий счетчиков
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Next увеличивает счетчик scope и возвращает новое значение
// Выполняется в транзакции из контекста, поэтому откатывается вместе с бронированием
func (r *Repository) Next(ctx context.Context, scopeKey string, day time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reference_counters").
		Columns("scope_key", "reset_day", "value").
		Values(scopeKey, day.Format(domain.DateFormat), 1).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: Next - build upsert query: %v", ErrBuildQuery, err)
	}

	var value int64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return 0, fmt.Errorf("%w: Next - execute upsert for scope=%s: %v", ErrExecQuery, scopeKey, err)
	}

	return value, nil
}
