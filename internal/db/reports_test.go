package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klu-lostfound/internal/match"
)

var columns = []string{"id", "name", "email", "phone", "item_name", "description",
	"location", "image_filename", "date_reported", "type", "status"}

func newMockStore(t *testing.T) (*ReportStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewReportStore(db), mock
}

func TestListReports(t *testing.T) {
	store, mock := newMockStore(t)
	reported := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows(columns).
		AddRow(int64(1), "Ana", "ana@klu.edu", nil, "Phone", "black phone", "library", "lost1.jpg", reported, "lost", "active").
		AddRow(int64(3), "Ben", "ben@klu.edu", "555-0101", "Wallet", "brown", "gym", nil, reported, "lost", "resolved")
	mock.ExpectQuery(`SELECT (.+) FROM reports WHERE \(\$1 = '' OR type = \$1\) ORDER BY id`).
		WithArgs("lost").
		WillReturnRows(rows)

	reports, err := store.ListReports(context.Background(), match.Lost)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, match.Report{
		ID: 1, Name: "Ana", Email: "ana@klu.edu", ItemName: "Phone", Description: "black phone",
		Location: "library", ImageRef: "lost1.jpg", ReportedAt: reported, Type: match.Lost, Status: "active",
	}, reports[0])
	assert.Equal(t, "555-0101", reports[1].Phone)
	assert.Empty(t, reports[1].ImageRef)
	assert.False(t, reports[1].Active())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActive(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM reports WHERE (.+) AND status = 'active'`).
		WithArgs("found").
		WillReturnRows(sqlmock.NewRows(columns))

	reports, err := store.ListActive(context.Background(), match.Found)
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReportsQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT (.+) FROM reports`).WillReturnError(errors.New("connection reset"))

	_, err := store.ListReports(context.Background(), "")
	assert.ErrorContains(t, err, "connection reset")
}

func TestGetReport(t *testing.T) {
	store, mock := newMockStore(t)
	reported := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM reports WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(7), "Cy", "cy@klu.edu", nil, "Keys", "car keys", "parking lot", nil, reported, "found", "active"))
	mock.ExpectQuery(`SELECT (.+) FROM reports WHERE id = \$1`).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows(columns))

	r, err := store.GetReport(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, match.Found, r.Type)
	assert.Equal(t, "Keys", r.ItemName)

	_, err = store.GetReport(context.Background(), 8)
	assert.ErrorIs(t, err, ErrReportNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMatchRun(t *testing.T) {
	store, mock := newMockStore(t)
	results := []match.Result{
		{LostID: 1, FoundID: 2, Percentage: 68.89, Tier: "Medium", Signal: match.SignalText},
		{LostID: 1, FoundID: 5, Percentage: 100, Tier: "High", Signal: match.SignalImage},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO match_history`)
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), "standard", int64(1), int64(2), 68.89, "Medium", "text").
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), "standard", int64(1), int64(5), 100.0, "High", "image").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	runID, err := store.SaveMatchRun(context.Background(), "standard", results)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, runID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMatchRunRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectPrepare(`INSERT INTO match_history`).
		ExpectExec().
		WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	_, err := store.SaveMatchRun(context.Background(), "standard", []match.Result{{LostID: 1, FoundID: 99}})
	assert.ErrorContains(t, err, "foreign key violation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS reports`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReports(t *testing.T) {
	store, mock := newMockStore(t)
	reports := []match.Report{
		{Name: "Ana", Email: "ana@klu.edu", ItemName: "Phone", Description: "black phone", Location: "library", ImageRef: "lost1.jpg", Type: match.Lost},
		{Name: "Ben", Email: "ben@klu.edu", Phone: "555-0101", ItemName: "Wallet", Type: match.Found, Status: "resolved"},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO reports`)
	prep.ExpectExec().
		WithArgs("Ana", "ana@klu.edu", nil, "Phone", "black phone", "library", "lost1.jpg", sqlmock.AnyArg(), "lost", "active").
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs("Ben", "ben@klu.edu", "555-0101", "Wallet", "", "", nil, sqlmock.AnyArg(), "found", "resolved").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	n, err := store.InsertReports(context.Background(), reports)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReportsRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectPrepare(`INSERT INTO reports`).
		ExpectExec().
		WillReturnError(errors.New("check constraint violated"))
	mock.ExpectRollback()

	_, err := store.InsertReports(context.Background(), []match.Report{{ItemName: "Keys", Type: "stolen"}})
	assert.ErrorContains(t, err, "check constraint violated")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// cutoffNear matches a time argument within a minute of want
type cutoffNear struct{ want time.Time }

func (c cutoffNear) Match(v driver.Value) bool {
	got, ok := v.(time.Time)
	if !ok {
		return false
	}
	d := got.Sub(c.want)
	return d > -time.Minute && d < time.Minute
}

func TestExpireReports(t *testing.T) {
	store, mock := newMockStore(t)
	olderThan := 90 * 24 * time.Hour

	mock.ExpectExec(`UPDATE reports SET status = 'expired' WHERE status = 'active' AND date_reported < \$1`).
		WithArgs(cutoffNear{want: time.Now().UTC().Add(-olderThan)}).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := store.ExpireReports(context.Background(), olderThan)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireReportsErrors(t *testing.T) {
	t.Run("non-positive age", func(t *testing.T) {
		store, mock := newMockStore(t)
		_, err := store.ExpireReports(context.Background(), 0)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update fails", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE reports`).WillReturnError(errors.New("connection reset"))

		_, err := store.ExpireReports(context.Background(), time.Hour)
		assert.ErrorContains(t, err, "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
