package get_availability

import "github.com/m04kA/SMC-ReservationService/internal/domain"

// Request модель запроса календаря доступности
type Request struct {
	Kind       domain.ReservationKind
	ResourceID int64
	Month      int // 1..12
	Year       int
}

// Response календарь ресурса на месяц, дни по возрастанию даты
type Response struct {
	Kind          domain.ReservationKind
	ResourceID    int64
	Month         int
	Year          int
	TotalCapacity int
	Days          []domain.DayStatus
}
