package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"decomp-history/core/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a GORM DB backed by sqlmock using the MySQL dialect.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func newSQLiteJournal(t *testing.T) *Journal {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	j := New(db, zap.NewNop())
	require.NoError(t, j.Migrate())
	return j
}

func TestJournal_Lifecycle(t *testing.T) {
	ctx := context.Background()
	j := newSQLiteJournal(t)

	clock := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	first, err := j.Start(ctx, false)
	require.NoError(t, err)
	assert.Len(t, first.ID, 36)
	assert.Equal(t, StatusRunning, first.Status)

	first.Strategy = "append"
	first.Built = 2
	require.NoError(t, j.Finish(ctx, first, nil))

	second, err := j.Start(ctx, true)
	require.NoError(t, err)
	require.NoError(t, j.Finish(ctx, second, errors.New("decompilation of 1.17 failed")))

	runs, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, second.ID, runs[0].ID, "newest first")
	assert.Equal(t, StatusFailed, runs[0].Status)
	assert.True(t, runs[0].DryRun)
	assert.Contains(t, runs[0].Error, "1.17")

	assert.Equal(t, StatusSucceeded, runs[1].Status)
	assert.Equal(t, "append", runs[1].Strategy)
	assert.Equal(t, 2, runs[1].Built)
	require.NotNil(t, runs[1].FinishedAt)
	assert.True(t, runs[1].FinishedAt.After(runs[1].StartedAt))
}

func TestJournal_RecentLimit(t *testing.T) {
	ctx := context.Background()
	j := newSQLiteJournal(t)
	for i := 0; i < 3; i++ {
		_, err := j.Start(ctx, false)
		require.NoError(t, err)
	}

	runs, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestJournal_MigrateIsIdempotent(t *testing.T) {
	j := newSQLiteJournal(t)
	assert.NoError(t, j.Migrate())
}

func TestJournal_MySQL(t *testing.T) {
	ctx := context.Background()

	t.Run("Recent", func(t *testing.T) {
		db, sqlMock := setupMockDB(t)
		started := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{"id", "started_at", "dry_run", "strategy", "built", "status"}).
			AddRow("0b6a8f5e-1d1c-4c55-9a53-3b8b1f1f8e11", started, false, "rewrite", 12, "succeeded")
		sqlMock.ExpectQuery("SELECT \\* FROM `runs` ORDER BY started_at desc LIMIT").WillReturnRows(rows)

		runs, err := New(db, zap.NewNop()).Recent(ctx, 5)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "rewrite", runs[0].Strategy)
		assert.Equal(t, 12, runs[0].Built)
		assert.Equal(t, StatusSucceeded, runs[0].Status)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("StartFails", func(t *testing.T) {
		db, sqlMock := setupMockDB(t)
		sqlMock.ExpectBegin()
		sqlMock.ExpectExec("INSERT INTO `runs`").WillReturnError(errors.New("table is read only"))
		sqlMock.ExpectRollback()

		run, err := New(db, zap.NewNop()).Start(ctx, false)
		assert.Nil(t, run)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read only")
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}
