package sqlx_test

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	storage "acrossfc/adapters/sqlx"
	"acrossfc/core"
)

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	xdb := storage.NewWithDB(libsqlx.NewDb(db, "postgres"), storage.DriverPostgres)
	cleanup := func() {
		_ = db.Close()
	}
	return xdb, mock, cleanup
}

func TestSQLMock_AddPointsEvent_FirstClear(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	ctx := context.Background()
	ev := core.NewPointsEvent("ev-1", 5, core.CategorySavage1, "First clear: P9S", 100)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT total FROM member_points`).
		WithArgs(int64(5), "6_4").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(5), "6_4", "SAVAGE_1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO member_one_time`).
		WithArgs(int64(5), "6_4", "SAVAGE_1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO member_points`).
		WithArgs(int64(5), "6_4", int64(20), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO points_events`).
		WithArgs("ev-1", "6_4", int64(5), int64(20), "SAVAGE_1", "First clear: P9S", int64(100)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	total, err := store.AddPointsEvent(ctx, "6_4", ev)
	require.NoError(t, err)
	require.Equal(t, int64(20), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_AddPointsEvent_ConcurrentOneTime(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT total FROM member_points`).
		WithArgs(int64(5), "6_4").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(int64(10)))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(5), "6_4", "SAVAGE_1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO member_one_time`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	total, err := store.AddPointsEvent(context.Background(), "6_4", core.NewPointsEvent("ev-2", 5, core.CategorySavage1, "First clear: P9S", 100))
	require.ErrorIs(t, err, core.ErrOneTimeAwarded)
	require.Equal(t, int64(10), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_AddPointsEvent_Update(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT total FROM member_points`).
		WithArgs(int64(5), "6_4").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(int64(20)))
	mock.ExpectExec(`UPDATE member_points SET total`).
		WithArgs(int64(30), sqlmock.AnyArg(), int64(5), "6_4").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO points_events`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	total, err := store.AddPointsEvent(context.Background(), "6_4", core.NewPointsEvent("ev-2", 5, core.CategoryVet, "Veteran support: P9S", 100))
	require.NoError(t, err)
	require.Equal(t, int64(30), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_AddPointsEvent_OneTimeAwarded(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT total FROM member_points`).
		WithArgs(int64(5), "6_4").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(int64(20)))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(5), "6_4", "SAVAGE_1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	total, err := store.AddPointsEvent(context.Background(), "6_4", core.NewPointsEvent("ev-3", 5, core.CategorySavage1, "", 100))
	require.ErrorIs(t, err, core.ErrOneTimeAwarded)
	require.Equal(t, int64(20), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_GetMemberPoints(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT member_id, total, updated_at FROM member_points`).
		WithArgs(int64(5), "6_4").
		WillReturnRows(sqlmock.NewRows([]string{"member_id", "total", "updated_at"}).AddRow(int64(5), int64(60), int64(1700000000)))
	mock.ExpectQuery(`SELECT category FROM member_one_time`).
		WithArgs(int64(5), "6_4").
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("SAVAGE_1").AddRow("SAVAGE_2"))

	p, err := store.GetMemberPoints(context.Background(), 5, "6_4")
	require.NoError(t, err)
	require.Equal(t, int64(60), p.Total)
	require.True(t, p.HasOneTime(core.CategorySavage1))
	require.True(t, p.HasOneTime(core.CategorySavage2))
	require.Equal(t, int64(1700000000), p.Updated.Unix())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_GetMemberPoints_NotFound(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT member_id, total, updated_at FROM member_points`).
		WithArgs(int64(9), "6_4").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetMemberPoints(context.Background(), 9, "6_4")
	require.ErrorIs(t, err, core.ErrMemberNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_SaveClears_OnConflict(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO clears .* ON CONFLICT \(clear_key\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO clears .* ON CONFLICT \(clear_key\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	added, err := store.SaveClears(context.Background(), []core.Clear{
		{MemberID: 1, Encounter: core.P9S, ReportCode: "a", ReportFightID: 1},
		{MemberID: 1, Encounter: core.P9S, ReportCode: "a", ReportFightID: 1},
	})
	require.NoError(t, err)
	require.Equal(t, 1, added)
	require.NoError(t, mock.ExpectationsWereMet())
}
