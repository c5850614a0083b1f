package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

// Repository справочник бронируемых ресурсов (только чтение)
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория ресурсов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByRef получает ресурс по типу и ID
// Внутри транзакции строка блокируется, это сериализует создание бронирований одного ресурса
func (r *Repository) GetByRef(ctx context.Context, kind domain.ReservationKind, id int64) (*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(
		"kind",
		"id",
		"parent_id",
		"name",
		"guest_capacity",
		"unit_capacity",
		"maintenance",
	).
		From("resources").
		Where(squirrel.Eq{"kind": kind, "id": id})

	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByRef - build select query: %v", ErrBuildQuery, err)
	}

	var (
		res      domain.Resource
		kindCol  string
		parentID sql.NullInt64
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&kindCol,
		&res.ID,
		&parentID,
		&res.Name,
		&res.GuestCapacity,
		&res.UnitCapacity,
		&res.Maintenance,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("%w: GetByRef - scan %s id=%d: %v", ErrExecQuery, kind, id, err)
	}

	res.Kind = domain.ReservationKind(kindCol)
	if parentID.Valid {
		p := parentID.Int64
		res.ParentID = &p
	}

	return &res, nil
}
