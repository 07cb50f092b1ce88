package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "forex-journal/internal/errors"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "journal.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	_, err = s.Get(ctx, DefaultTradesKey)
	assert.ErrorIs(t, err, apperrors.ErrBlobNotFound)
	_, err = s.UpdatedAt(ctx, DefaultTradesKey)
	assert.ErrorIs(t, err, apperrors.ErrBlobNotFound)

	v1, err := s.Put(ctx, DefaultTradesKey, []byte(`[1]`), time.Time{})
	require.NoError(t, err)
	v2, err := s.Put(ctx, DefaultTradesKey, []byte(`[1,2]`), v1)
	require.NoError(t, err)

	// Both a stale version and a second first-write lose.
	_, err = s.Put(ctx, DefaultTradesKey, []byte(`[9]`), v1)
	assert.ErrorIs(t, err, apperrors.ErrBlobConflict)
	_, err = s.Put(ctx, DefaultTradesKey, []byte(`[9]`), time.Time{})
	assert.ErrorIs(t, err, apperrors.ErrBlobConflict)

	got, err := s.Get(ctx, DefaultTradesKey)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))

	updated, err := s.UpdatedAt(ctx, DefaultTradesKey)
	require.NoError(t, err)
	assert.True(t, updated.Equal(v2), "stored %s, wrote %s", updated, v2)
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, err = reopened.Get(ctx, DefaultTradesKey)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))

	updated, err = reopened.UpdatedAt(ctx, DefaultTradesKey)
	require.NoError(t, err)
	assert.True(t, updated.Equal(v2))

	_, err = reopened.Put(ctx, DefaultTradesKey, []byte(`[1,2,3]`), updated)
	require.NoError(t, err)
}

func TestSQLiteStoreSeesWritesFromAnotherConnection(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	first, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer first.Close()
	second, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer second.Close()

	v1, err := first.Put(ctx, DefaultTradesKey, []byte(`[1]`), time.Time{})
	require.NoError(t, err)

	seen, err := second.UpdatedAt(ctx, DefaultTradesKey)
	require.NoError(t, err)
	v2, err := second.Put(ctx, DefaultTradesKey, []byte(`[1,2]`), seen)
	require.NoError(t, err)

	// first still believes v1 is current.
	_, err = first.Put(ctx, DefaultTradesKey, []byte(`[1,3]`), v1)
	assert.ErrorIs(t, err, apperrors.ErrBlobConflict)

	current, err := first.UpdatedAt(ctx, DefaultTradesKey)
	require.NoError(t, err)
	assert.True(t, current.Equal(v2))
}

func TestSQLiteStoreBacksRepository(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	repo, err := NewRepository(ctx, s, DefaultTradesKey, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, sampleTrade("a")))
	require.NoError(t, repo.Append(ctx, sampleTrade("b")))
	_, err = repo.Remove(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()
	repo, err = NewRepository(ctx, s, DefaultTradesKey, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(repo.List()))
}

func TestSQLiteStoreGetMocked(t *testing.T) {
	tests := []struct {
		name      string
		mockSetup func(mock sqlmock.Sqlmock)
		want      string
		wantErr   error
	}{
		{
			name: "found",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[]`))
				mock.ExpectQuery(`SELECT value FROM kv_blobs WHERE key = \?`).
					WithArgs(DefaultTradesKey).
					WillReturnRows(rows)
			},
			want: `[]`,
		},
		{
			name: "missing",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT value FROM kv_blobs`).
					WithArgs(DefaultTradesKey).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: apperrors.ErrBlobNotFound,
		},
		{
			name: "driver failure",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT value FROM kv_blobs`).
					WithArgs(DefaultTradesKey).
					WillReturnError(errors.New("database is locked"))
			},
			wantErr: apperrors.ErrDatabaseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mockSetup(mock)

			s := NewSQLiteStoreWithDB(db)
			got, err := s.Get(context.Background(), DefaultTradesKey)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, string(got))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLiteStorePutMocked(t *testing.T) {
	seen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expected  time.Time
		mockSetup func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "first write inserts",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO kv_blobs .+ ON CONFLICT\(key\) DO NOTHING`).
					WithArgs(DefaultTradesKey, []byte(`[]`), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "key created by another writer",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO kv_blobs`).
					WithArgs(DefaultTradesKey, []byte(`[]`), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: apperrors.ErrBlobConflict,
		},
		{
			name:     "update at expected version",
			expected: seen,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE kv_blobs SET value = \?, updated_at = \? WHERE key = \? AND updated_at = \?`).
					WithArgs([]byte(`[]`), sqlmock.AnyArg(), DefaultTradesKey, seen).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:     "version moved",
			expected: seen,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE kv_blobs`).
					WithArgs([]byte(`[]`), sqlmock.AnyArg(), DefaultTradesKey, seen).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: apperrors.ErrBlobConflict,
		},
		{
			name:     "driver failure",
			expected: seen,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE kv_blobs`).
					WithArgs([]byte(`[]`), sqlmock.AnyArg(), DefaultTradesKey, seen).
					WillReturnError(errors.New("disk I/O error"))
			},
			wantErr: apperrors.ErrDatabaseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mockSetup(mock)

			s := NewSQLiteStoreWithDB(db)
			version, err := s.Put(context.Background(), DefaultTradesKey, []byte(`[]`), tt.expected)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.True(t, version.After(tt.expected))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLiteStoreUpdatedAtMocked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Second)
	for _, when := range []time.Time{first, second} {
		mock.ExpectQuery(`SELECT updated_at FROM kv_blobs WHERE key = \?`).
			WithArgs(DefaultTradesKey).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(when))
	}

	s := NewSQLiteStoreWithDB(db)
	got, err := s.UpdatedAt(context.Background(), DefaultTradesKey)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	// Every call goes to the database; another process may have written.
	got, err = s.UpdatedAt(context.Background(), DefaultTradesKey)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStorePutRetriesBusy(t *testing.T) {
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}

	tests := []struct {
		name      string
		failures  int
		wantErr   bool
		wantExecs int
	}{
		{name: "recovers after lock is released", failures: 2, wantExecs: 3},
		{name: "gives up after max attempts", failures: 3, wantErr: true, wantExecs: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			for i := 0; i < tt.wantExecs; i++ {
				exp := mock.ExpectExec(`INSERT INTO kv_blobs`).
					WithArgs(DefaultTradesKey, []byte(`[]`), sqlmock.AnyArg())
				if i < tt.failures {
					exp.WillReturnError(busy)
				} else {
					exp.WillReturnResult(sqlmock.NewResult(1, 1))
				}
			}

			s := NewSQLiteStoreWithDB(db)
			s.retry = retryConfig{maxAttempts: 3, initialDelay: time.Millisecond, maxDelay: time.Millisecond, backoffFactor: 2}

			_, err = s.Put(context.Background(), DefaultTradesKey, []byte(`[]`), time.Time{})
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrDatabaseError)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRetryBusyStopsOnOtherErrors(t *testing.T) {
	calls := 0
	err := retryBusy(context.Background(), defaultRetryConfig(), func() error {
		calls++
		return errors.New("constraint failed")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryBusyHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retryBusy(ctx, defaultRetryConfig(), func() error {
		calls++
		return sqlite3.Error{Code: sqlite3.ErrLocked}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
