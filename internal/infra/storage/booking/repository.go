package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/policy"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с бронированиями и их деталями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает бронирование и его деталь
// Две вставки должны выполняться в одной транзакции (передается через контекст)
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"user_id",
			"kind",
			"resource_id",
			"parent_booking_id",
			"service_date",
			"checkout_date",
			"guest_count",
			"total_price",
			"status",
			"reference_code",
			"created_at",
			"updated_at",
		).
		Values(
			booking.UserID,
			booking.Kind,
			booking.ResourceID,
			booking.ParentBookingID,
			booking.ServiceDate,
			booking.CheckoutDate,
			booking.GuestCount,
			booking.TotalPrice,
			booking.Status,
			booking.ReferenceCode,
			booking.CreatedAt,
			booking.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&booking.ID); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	if err := r.insertDetail(ctx, executor, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

func (r *Repository) insertDetail(ctx context.Context, executor DBExecutor, booking *domain.Booking) error {
	var insert squirrel.InsertBuilder

	switch d := booking.Detail.(type) {
	case domain.ResortDetail:
		insert = psqlbuilder.Insert("resort_bookings").
			Columns("booking_id", "resort_id", "check_in", "check_out", "guests", "payment_proof_path", "status").
			Values(booking.ID, d.ResortID, d.CheckIn, d.CheckOut, d.GuestCount, d.PaymentProofPath, d.Status)
	case domain.HotelDetail:
		insert = psqlbuilder.Insert("hotel_bookings").
			Columns("booking_id", "hotel_id", "room_id", "check_in", "check_out", "guests").
			Values(booking.ID, d.HotelID, d.RoomID, d.CheckIn, d.CheckOut, d.GuestCount)
	case domain.BoatDetail:
		insert = psqlbuilder.Insert("boat_bookings").
			Columns("booking_id", "boat_id", "ride_at", "adults", "children", "status").
			Values(booking.ID, d.BoatID, d.RideAt, d.Adults, d.Children, d.Status)
	case domain.RestaurantDetail:
		insert = psqlbuilder.Insert("restaurant_bookings").
			Columns("booking_id", "table_id", "reserved_at", "guests", "is_confirmed", "confirmed_at").
			Values(booking.ID, d.TableID, d.ReservedAt, d.GuestCount, d.IsConfirmed, d.ConfirmedAt)
	case domain.LandingAreaDetail:
		insert = psqlbuilder.Insert("landing_area_requests").
			Columns("booking_id", "landing_area_id", "pickup_at", "passengers", "is_confirmed").
			Values(booking.ID, d.LandingAreaID, d.PickupAt, d.Passengers, d.IsConfirmed)
	default:
		return fmt.Errorf("%w: Create - booking id=%d has detail %T", ErrUnknownDetail, booking.ID, booking.Detail)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("%w: Create - build detail insert: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Create - execute detail insert: %v", ErrExecQuery, err)
	}

	return nil
}

func selectBookings() squirrel.SelectBuilder {
	builder := psqlbuilder.Select(selectColumns...).From("bookings b")
	for _, join := range detailJoins {
		builder = builder.LeftJoin(join)
	}
	return builder
}

// GetByID получает бронирование по ID
// Внутри транзакции строка бронирования блокируется (FOR UPDATE OF b)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := selectBookings().Where(squirrel.Eq{"b.id": id})
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE OF b")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		if errors.Is(err, ErrUnknownDetail) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: GetByID - scan booking id=%d: %v", ErrScanRow, id, err)
	}

	return booking, nil
}

// List получает бронирования по фильтру
// Период задается полуинтервалом [From, To) по дням занятости, точное пересечение считает календарь
func (r *Repository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := selectBookings()

	if filter.UserID != nil {
		builder = builder.Where(squirrel.Eq{"b.user_id": *filter.UserID})
	}
	if filter.Kind != nil {
		builder = builder.Where(squirrel.Eq{"b.kind": *filter.Kind})
	}
	if filter.ResourceID != nil {
		builder = builder.Where(squirrel.Eq{"b.resource_id": *filter.ResourceID})
	}
	if filter.To != nil {
		builder = builder.Where(squirrel.Lt{"b.service_date": *filter.To})
	}
	if filter.From != nil {
		builder = builder.Where(squirrel.GtOrEq{"COALESCE(b.checkout_date, b.service_date)": *filter.From})
	}

	// Фильтрация по статусу
	if filter.Status != nil {
		builder = builder.Where(squirrel.Eq{"b.status": *filter.Status})
	} else if !filter.IncludeInactive {
		inactive := make([]string, len(domain.InactiveStatuses))
		for i, s := range domain.InactiveStatuses {
			inactive[i] = string(s)
		}
		builder = builder.Where(squirrel.NotEq{"b.status": inactive})
	}

	builder = builder.OrderBy("b.service_date ASC", "b.id ASC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListOverdue получает pending бронирования, дедлайн которых истек к now, старые первыми
// Условие по тарифам совпадает с policy.ShouldExpire
func (r *Repository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	overdue := squirrel.Or{}
	for _, cutoff := range policy.OverdueCutoffs(now) {
		if cutoff.MaxLead == 0 {
			overdue = append(overdue, squirrel.Lt{"b.created_at": cutoff.CreatedBefore})
			continue
		}
		overdue = append(overdue, squirrel.And{
			squirrel.Expr("b.service_date - b.created_at <= make_interval(secs => ?)", cutoff.MaxLead.Seconds()),
			squirrel.Lt{"b.created_at": cutoff.CreatedBefore},
		})
	}

	builder := selectBookings().
		Where(squirrel.Eq{"b.status": domain.StatusPending}).
		Where(overdue).
		OrderBy("b.created_at ASC", "b.id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverdue - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverdue - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListChildren получает дочерние бронирования (лодка к проживанию в отеле)
func (r *Repository) ListChildren(ctx context.Context, parentID int64) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := selectBookings().
		Where(squirrel.Eq{"b.parent_booking_id": parentID}).
		OrderBy("b.id ASC")
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE OF b")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListChildren - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListChildren - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateStatus записывает статус агрегата и отражение статуса в детали
func (r *Repository) UpdateStatus(ctx context.Context, booking *domain.Booking) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", booking.Status).
		Set("updated_at", booking.UpdatedAt).
		Where(squirrel.Eq{"id": booking.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return r.updateDetailStatus(ctx, executor, booking)
}

func (r *Repository) updateDetailStatus(ctx context.Context, executor DBExecutor, booking *domain.Booking) error {
	var update squirrel.UpdateBuilder

	switch d := booking.Detail.(type) {
	case domain.ResortDetail:
		update = psqlbuilder.Update("resort_bookings").Set("status", d.Status)
	case domain.BoatDetail:
		update = psqlbuilder.Update("boat_bookings").Set("status", d.Status)
	case domain.RestaurantDetail:
		update = psqlbuilder.Update("restaurant_bookings").
			Set("is_confirmed", d.IsConfirmed).
			Set("confirmed_at", d.ConfirmedAt)
	case domain.LandingAreaDetail:
		update = psqlbuilder.Update("landing_area_requests").Set("is_confirmed", d.IsConfirmed)
	case domain.HotelDetail:
		// у проживания в отеле нет собственного статуса
		return nil
	default:
		return fmt.Errorf("%w: UpdateStatus - booking id=%d has detail %T", ErrUnknownDetail, booking.ID, booking.Detail)
	}

	query, args, err := update.Where(squirrel.Eq{"booking_id": booking.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build detail update: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute detail update: %v", ErrExecQuery, err)
	}

	return nil
}
