package refund

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

// uniqueViolation код ошибки postgres для нарушения уникального индекса
const uniqueViolation = pq.ErrorCode("23505")

var refundColumns = []string{
	"id",
	"booking_id",
	"payment_id",
	"original_amount",
	"refund_amount",
	"status",
	"reason",
	"created_at",
	"approved_at",
}

// Repository репозиторий возвратов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория возвратов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает возврат
// Уникальный индекс по booking_id гарантирует не более одного возврата на бронирование
func (r *Repository) Create(ctx context.Context, refund *domain.Refund) (*domain.Refund, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("refunds").
		Columns("booking_id", "payment_id", "original_amount", "refund_amount", "status", "reason", "created_at").
		Values(refund.BookingID, refund.PaymentID, refund.OriginalAmount, refund.RefundAmount, refund.Status, refund.Reason, refund.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&refund.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: booking id=%d", ErrAlreadyExists, refund.BookingID)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return refund, nil
}

// GetByID получает возврат по ID, внутри транзакции с блокировкой строки
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Refund, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"id": id})
}

// GetByBookingID получает возврат бронирования
func (r *Repository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Refund, error) {
	return r.getOne(ctx, "GetByBookingID", squirrel.Eq{"booking_id": bookingID})
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Eq) (*domain.Refund, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(refundColumns...).From("refunds").Where(where)
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	var (
		refund     domain.Refund
		status     string
		reason     sql.NullString
		approvedAt sql.NullTime
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&refund.ID,
		&refund.BookingID,
		&refund.PaymentID,
		&refund.OriginalAmount,
		&refund.RefundAmount,
		&status,
		&reason,
		&refund.CreatedAt,
		&approvedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefundNotFound
		}
		return nil, fmt.Errorf("%w: %s - scan refund: %v", ErrScanRow, op, err)
	}

	refund.Status = domain.RefundStatus(status)
	if reason.Valid {
		refund.Reason = &reason.String
	}
	if approvedAt.Valid {
		refund.ApprovedAt = &approvedAt.Time
	}

	return &refund, nil
}

// Approve переводит возврат pending -> approved
func (r *Repository) Approve(ctx context.Context, id int64, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("refunds").
		Set("status", domain.RefundApproved).
		Set("approved_at", at).
		Where(squirrel.Eq{"id": id, "status": domain.RefundPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Approve - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Approve - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Approve - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrRefundNotFound
	}

	return nil
}
