package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

func newMock(t *testing.T) (*SeatRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSeatRepo(db), mock
}

// A seat the owner blocked after the booking must not make the
// cancellation fail: only the still-occupied seats are released.
func TestReleaseBulkTx_SkipsBlockedSeats(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM seats WHERE status = ? AND id IN (?, ?, ?) FOR UPDATE`).
		WithArgs(model.SeatOccupied, 11, 12, 13).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11).AddRow(13))
	mock.ExpectExec(`UPDATE seats SET status = ? WHERE id IN (?, ?)`).
		WithArgs(model.SeatAvailable, 11, 13).
		WillReturnResult(sqlmock.NewResult(0, 2))

	tx, err := repo.db.Begin()
	require.NoError(t, err)

	released, err := repo.ReleaseBulkTx(context.Background(), tx, []uint64{11, 12, 13})
	require.NoError(t, err)
	assert.Equal(t, []uint64{11, 13}, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseBulkTx_NothingOccupied(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM seats WHERE status = ? AND id IN (?) FOR UPDATE`).
		WithArgs(model.SeatOccupied, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	tx, err := repo.db.Begin()
	require.NoError(t, err)

	released, err := repo.ReleaseBulkTx(context.Background(), tx, []uint64{7})
	require.NoError(t, err, "no occupied seats is not an error")
	assert.Empty(t, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusBulkTx_ConflictOnPartialMatch(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE seats SET status = ? WHERE status = ? AND id IN (?, ?)`).
		WithArgs(model.SeatOccupied, model.SeatAvailable, 1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := repo.db.Begin()
	require.NoError(t, err)

	err = repo.UpdateStatusBulkTx(context.Background(), tx, []uint64{1, 2}, model.SeatAvailable, model.SeatOccupied)
	assert.ErrorIs(t, err, ErrConflict, "a seat grabbed concurrently rolls the booking back")
	assert.NoError(t, mock.ExpectationsWereMet())
}
