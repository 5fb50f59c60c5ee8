package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// Any matches any driver value in an expectation.
type Any struct{}

func (Any) Match(v driver.Value) bool { return true }

func TestGormStore_AdjustUserCount(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	// The counter moves by a relative SQL expression, never a read back value.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "parks" SET "user_count"=user_count + $1,"updated_at"=$2 WHERE id = $3`)).
		WithArgs(1, Any{}, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.AdjustUserCount(context.Background(), "p1", 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_AdjustUserCountDecrement(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "parks" SET "user_count"=user_count + $1,"updated_at"=$2 WHERE id = $3`)).
		WithArgs(-1, Any{}, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.AdjustUserCount(context.Background(), "p1", -1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CheckOutMissingRow(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "presences"`)).
		WithArgs("p1", "u1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"park_id", "owner_id"}))

	_, found, err := s.CheckOut(context.Background(), "p1", "u1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CheckOutReturnsPriorRow(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	checkedIn := time.Now().Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "presences"`)).
		WithArgs("p1", "u1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"park_id", "owner_id", "checked_in_at"}).
			AddRow("p1", "u1", checkedIn))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "presences" WHERE park_id = $1 AND owner_id = $2`)).
		WithArgs("p1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	prior, found, err := s.CheckOut(context.Background(), "p1", "u1")
	require.NoError(t, err)
	assert.True(t, found)
	require.NotNil(t, prior.CheckedInAt)
	assert.WithinDuration(t, checkedIn, *prior.CheckedInAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CheckOutLosesDeleteRace(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "presences"`)).
		WithArgs("p1", "u1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"park_id", "owner_id"}).AddRow("p1", "u1"))

	// Another checkout deleted the row between the read and the delete.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "presences"`)).
		WithArgs("p1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, found, err := s.CheckOut(context.Background(), "p1", "u1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ReserveRecap(t *testing.T) {
	testCases := []struct {
		name         string
		rowsAffected int64
		wantClaimed  bool
	}{
		{"insert wins the slot", 1, true},
		{"conflict yields the slot", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "recap_reservations"`)).
				WithArgs("u1", "2025-06-01", "pending", Any{}, Any{}).
				WillReturnResult(sqlmock.NewResult(0, tc.rowsAffected))
			mock.ExpectCommit()

			claimed, err := s.ReserveRecap(context.Background(), "u1", "2025-06-01")
			require.NoError(t, err)
			assert.Equal(t, tc.wantClaimed, claimed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_CloseLatestOpenVisitWithoutOpenVisit(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "visits"`)).
		WithArgs("p1", "u1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	closed, err := s.CloseLatestOpenVisit(context.Background(), "p1", "u1", "checkout", time.Now())
	require.NoError(t, err)
	assert.False(t, closed, "closing with no open visit is a no-op")
	assert.NoError(t, mock.ExpectationsWereMet())
}
