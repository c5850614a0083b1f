package refcounter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// DefaultTTL ключ дня живет дольше самого дня, чтобы пережить сдвиг часовых поясов
const DefaultTTL = 48 * time.Hour

// incrScript INCR и установка TTL на первом инкременте выполняются атомарно
var incrScript = redis.NewScript(`
local value = redis.call("INCR", KEYS[1])
if value == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return value
`)

// Store счетчики номеров брони в redis
// День входит в ключ, поэтому новый день всегда начинается с 1
// Инкремент не участвует в транзакции БД: откат бронирования оставляет пропуск в нумерации
type Store struct {
	client redis.Scripter
	ttl    time.Duration
}

// NewStore создает redis-хранилище счетчиков
func NewStore(client redis.Scripter, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Key ключ счетчика scope на день
func Key(scopeKey string, day time.Time) string {
	return fmt.Sprintf("refcounter:%s:%s", scopeKey, day.Format(domain.ReferenceDay))
}

// Next атомарно увеличивает счетчик
func (s *Store) Next(ctx context.Context, scopeKey string, day time.Time) (int64, error) {
	value, err := incrScript.Run(ctx, s.client, []string{Key(scopeKey, day)}, s.ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: scope=%s: %v", ErrIncrement, scopeKey, err)
	}
	return value, nil
}
