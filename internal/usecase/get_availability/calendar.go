package get_availability

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/policy"
)

// DayKey ключ дня в календаре
func DayKey(day time.Time) string {
	return day.Format(domain.DateFormat)
}

// Build строит календарь ресурса на дни [start, endExclusive) в часовом поясе start
// День endExclusive в календарь не входит: для дней с first по last включительно передается last+1 день
// Каждый день изначально available, активные бронирования занимают [checkIn, checkOut),
// однодневные бронирования занимают один день. Maintenance перекрывает все остальные статусы
func Build(resource *domain.Resource, start, endExclusive time.Time, bookings []*domain.Booking) map[string]*domain.DayStatus {
	loc := start.Location()
	start = domain.StartOfDay(start)
	end := domain.StartOfDay(endExclusive.In(loc))
	capacity := resource.CapacityPerDay()

	days := make(map[string]*domain.DayStatus)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days[DayKey(d)] = &domain.DayStatus{
			Date:          d,
			Status:        domain.DayAvailable,
			TotalCapacity: capacity,
			Bookings:      []domain.BookingSummary{},
		}
	}

	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		from, to := b.OccupancyIn(loc)
		if from.Before(start) {
			from = start
		}
		if to.After(end) {
			to = end
		}
		for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
			day, ok := days[DayKey(d)]
			if !ok {
				continue
			}
			day.BookedCount++
			day.Bookings = append(day.Bookings, b.Summary(loc))
		}
	}

	for _, day := range days {
		switch {
		case resource.Maintenance:
			day.Status = domain.DayMaintenance
		case day.BookedCount >= day.TotalCapacity:
			day.Status = domain.DayFullyBooked
		case day.BookedCount > 0:
			day.Status = domain.DayLimited
		}
	}

	return days
}

// Ordered возвращает дни календаря по возрастанию даты
func Ordered(days map[string]*domain.DayStatus) []domain.DayStatus {
	result := make([]domain.DayStatus, 0, len(days))
	for _, day := range days {
		result = append(result, *day)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result
}

// ActiveAt отбрасывает неактивные бронирования и pending, у которых истек срок
// Просроченное pending бронирование место уже не занимает, даже если sweeper до него еще не дошел
func ActiveAt(bookings []*domain.Booking, now time.Time) []*domain.Booking {
	result := make([]*domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		if !b.IsActive() || policy.ShouldExpire(b, now) {
			continue
		}
		result = append(result, b)
	}
	return result
}

// FirstUnavailable возвращает первый день, на котором нет свободного места
func FirstUnavailable(days map[string]*domain.DayStatus) (*domain.DayStatus, bool) {
	for _, day := range Ordered(days) {
		if day.Status == domain.DayFullyBooked || day.Status == domain.DayMaintenance {
			d := day
			return &d, true
		}
	}
	return nil, false
}

// MonthRange возвращает [первый день месяца, первый день следующего месяца) в loc
func MonthRange(year, month int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
