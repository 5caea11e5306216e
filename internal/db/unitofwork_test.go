package db_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/promptforge/internal/db"
)

func openUoW(t *testing.T) (*sql.DB, *db.SQLiteUnitOfWork) {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database, db.NewSQLiteUnitOfWork(database)
}

func insertScope(ctx context.Context, tx db.DBTX, scope string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO preferences (scope, data, updated_at) VALUES (?, '{}', '2026-01-01T00:00:00Z')`, scope)
	return err
}

func hasScope(t *testing.T, database *sql.DB, scope string) bool {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM preferences WHERE scope = ?`, scope).Scan(&n))
	return n > 0
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	database, uow := openUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return insertScope(ctx, tx, "user:u1")
	})
	require.NoError(t, err)
	assert.True(t, hasScope(t, database, "user:u1"))
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	database, uow := openUoW(t)
	boom := errors.New("deliberate failure")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertScope(ctx, tx, "user:u2"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, hasScope(t, database, "user:u2"))
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	database, uow := openUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insertScope(ctx, tx, "user:u3")
			panic("boom")
		})
	})
	assert.False(t, hasScope(t, database, "user:u3"))
}

// codedErr mimics the driver's error type.
type codedErr int

func (e codedErr) Error() string { return fmt.Sprintf("sqlite error %d", int(e)) }
func (e codedErr) Code() int     { return int(e) }

func TestWithinTx_RetriesWhenBusy(t *testing.T) {
	database, uow := openUoW(t)
	calls := 0

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		calls++
		if err := insertScope(ctx, tx, "user:u4"); err != nil {
			return err
		}
		if calls == 1 {
			return fmt.Errorf("saving: %w", codedErr(5))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, hasScope(t, database, "user:u4"), "the first attempt was rolled back, the second committed")
}

func TestWithinTx_GivesUpAfterAttempts(t *testing.T) {
	_, uow := openUoW(t)
	calls := 0

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		calls++
		return codedErr(517)
	})

	assert.True(t, db.IsBusy(err))
	assert.Equal(t, db.TxAttempts, calls)
}

func TestWithinTx_OtherErrorsAreNotRetried(t *testing.T) {
	_, uow := openUoW(t)
	calls := 0

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		calls++
		return codedErr(19)
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsBusy(t *testing.T) {
	assert.False(t, db.IsBusy(nil))
	assert.False(t, db.IsBusy(errors.New("database is locked")), "only driver codes count")
	assert.True(t, db.IsBusy(codedErr(5)))
	assert.True(t, db.IsBusy(codedErr(6)))
	assert.True(t, db.IsBusy(fmt.Errorf("wrapped: %w", codedErr(261))))
	assert.False(t, db.IsBusy(codedErr(19)))
}
