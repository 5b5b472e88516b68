package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coworking-map/internal/model"
	"github.com/sells-group/coworking-map/pkg/geocode"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "scrape", "running", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), model.OperationScrape)
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, model.OperationScrape, run.Operation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FinishRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status = \$1`).
		WithArgs("failed", pgxmock.AnyArg(), "boom", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FinishRun(context.Background(), "missing", model.RunStatusFailed, nil, "boom")
	require.ErrorIs(t, err, ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	finished := started.Add(time.Minute)

	rows := pgxmock.NewRows([]string{"id", "operation", "status", "stats", "error", "started_at", "finished_at"}).
		AddRow("run-1", "clean", "complete", []byte(`{"kept":4}`), "", started, &finished)
	mock.ExpectQuery(`SELECT id, operation, status, stats, error, started_at, finished_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.OperationClean, run.Operation)
	assert.Equal(t, 4, run.Stats["kept"])
	assert.Equal(t, time.Minute, run.Duration())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, operation, status, stats, error, started_at, finished_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.ErrorIs(t, err, ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_Placeholders(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"id", "operation", "status", "stats", "error", "started_at", "finished_at"}).
		AddRow("run-1", "geocode", "failed", []byte(nil), "forbidden", time.Now(), (*time.Time)(nil))
	mock.ExpectQuery(`WHERE true AND operation = \$1 AND status = \$2 ORDER BY started_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("geocode", "failed", 10, 5).
		WillReturnRows(rows)

	runs, err := s.ListRuns(context.Background(), RunFilter{
		Operation: model.OperationGeocode,
		Status:    model.RunStatusFailed,
		Limit:     10,
		Offset:    5,
	})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "forbidden", runs[0].Error)
	assert.Nil(t, runs[0].FinishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_StartedAfter(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "operation", "status", "stats", "error", "started_at", "finished_at"})
	mock.ExpectQuery(`WHERE true AND started_at >= \$1 ORDER BY started_at DESC LIMIT \$2`).
		WithArgs(since, 100).
		WillReturnRows(rows)

	runs, err := s.ListRuns(context.Background(), RunFilter{StartedAfter: since})
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedGeocode_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT matched, latitude, longitude, display_name, source FROM geocode_cache`).
		WithArgs("abc123").
		WillReturnError(pgx.ErrNoRows)

	result, err := s.GetCachedGeocode(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedGeocode_Hit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"matched", "latitude", "longitude", "display_name", "source"}).
		AddRow(true, 48.85, 2.35, "123 Rue X, Paris", "nominatim")
	mock.ExpectQuery(`FROM geocode_cache`).
		WithArgs("abc123").
		WillReturnRows(rows)

	result, err := s.GetCachedGeocode(context.Background(), "abc123")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, geocode.Result{Matched: true, Latitude: 48.85, Longitude: 2.35, DisplayName: "123 Rue X, Paris", Source: "nominatim"}, *result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetCachedGeocode_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(key\) DO UPDATE`).
		WithArgs("abc123", "123 Rue X", true, 48.85, 2.35, "", "nominatim", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SetCachedGeocode(context.Background(), "abc123", "123 Rue X",
		geocode.Result{Matched: true, Latitude: 48.85, Longitude: 2.35, Source: "nominatim"}, 24*time.Hour)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteExpiredGeocodes(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM geocode_cache`).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := s.DeleteExpiredGeocodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
