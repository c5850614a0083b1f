package refcounter

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Next(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reference_counters (scope_key,reset_day,value) VALUES ($1,$2,$3) ON CONFLICT (scope_key) DO UPDATE")).
		WithArgs("hotel:42", "2025-03-10", 1).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(7)))

	value, err := repo.Next(context.Background(), "hotel:42", day)
	require.NoError(t, err)
	assert.Equal(t, int64(7), value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Next_ExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO reference_counters").WillReturnError(errors.New("deadlock detected"))

	_, err = NewRepository(db).Next(context.Background(), "resort:1", time.Now())
	assert.ErrorIs(t, err, ErrExecQuery)
}
