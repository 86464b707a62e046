package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"newsbrief/shared/logger"
	"newsbrief/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "postgres"), logger.NewNop()), mock
}

var undefinedTable = &pq.Error{Code: "42P01", Message: `relation "briefings" does not exist`}

func TestRepository_Upsert(t *testing.T) {
	repo, mock := newMockRepo(t)
	day := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO briefings .* ON CONFLICT \\(date_key\\) DO UPDATE").
		WithArgs("2026-10-17-AM", "2026-10-17", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), "2026-10-17-AM", day, []types.BriefingItem{{ID: "a"}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MapsUndefinedTable(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT date_key, display_date, content, created_at FROM briefings").
		WillReturnError(undefinedTable)

	_, err := repo.Latest(context.Background())
	assert.ErrorIs(t, err, ErrRelationNotFound)

	mock.ExpectExec("INSERT INTO briefings").WillReturnError(sql.ErrConnDone)
	err = repo.Upsert(context.Background(), "k", time.Now(), nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRelationNotFound))
}

func TestRepository_Latest(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 10, 17, 8, 1, 0, 0, time.UTC)
	content, _ := json.Marshal([]types.BriefingItem{{ID: "x", URL: "https://a"}})

	mock.ExpectQuery("ORDER BY created_at DESC LIMIT 1").
		WillReturnRows(sqlmock.NewRows([]string{"date_key", "display_date", "content", "created_at"}).
			AddRow("2026-10-17-AM", created.Truncate(24*time.Hour), content, created))

	rec, err := repo.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "2026-10-17-AM", rec.DateKey)
	require.Len(t, rec.Content, 1)
	assert.Equal(t, "x", rec.Content[0].ID)

	mock.ExpectQuery("ORDER BY created_at DESC LIMIT 1").WillReturnError(sql.ErrNoRows)
	rec, err = repo.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ByDisplayDateAndDates(t *testing.T) {
	repo, mock := newMockRepo(t)
	day := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	pm, _ := json.Marshal([]types.BriefingItem{{ID: "pm"}})
	am, _ := json.Marshal([]types.BriefingItem{{ID: "am"}})

	mock.ExpectQuery("WHERE display_date = \\$1").
		WithArgs("2026-10-17").
		WillReturnRows(sqlmock.NewRows([]string{"date_key", "display_date", "content", "created_at"}).
			AddRow("2026-10-17-PM", day, pm, day.Add(20*time.Hour)).
			AddRow("2026-10-17-AM", day, am, day.Add(8*time.Hour)))

	recs, err := repo.ByDisplayDate(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "pm", recs[0].Content[0].ID)

	mock.ExpectQuery("SELECT DISTINCT display_date FROM briefings").
		WithArgs(MaxListedDates).
		WillReturnRows(sqlmock.NewRows([]string{"display_date"}).AddRow(day).AddRow(day.AddDate(0, 0, -1)))

	dates, err := repo.DisplayDates(context.Background(), MaxListedDates)
	require.NoError(t, err)
	assert.Len(t, dates, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ByDisplayDateSkipsUndecodableRecord(t *testing.T) {
	repo, mock := newMockRepo(t)
	day := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	am, _ := json.Marshal([]types.BriefingItem{{ID: "am"}})

	mock.ExpectQuery("WHERE display_date = \\$1").
		WithArgs("2026-10-17").
		WillReturnRows(sqlmock.NewRows([]string{"date_key", "display_date", "content", "created_at"}).
			AddRow("2026-10-17-PM", day, []byte(`{not json`), day.Add(20*time.Hour)).
			AddRow("2026-10-17-AM", day, am, day.Add(8*time.Hour)))

	recs, err := repo.ByDisplayDate(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "2026-10-17-AM", recs[0].DateKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_DefersConnection(t *testing.T) {
	db, err := Open("postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1")
	require.NoError(t, err, "an unreachable server is not an open error")
	t.Cleanup(func() { db.Close() })

	assert.Error(t, Ping(context.Background(), db))
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS briefings").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
