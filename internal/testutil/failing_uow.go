package testutil

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/promptforge/internal/db"
)

// FailingUoW runs transactions through db.SQLiteUnitOfWork and makes one
// write inside them fail, so tests can check that multi-write operations
// such as sign-in roll back as a whole.
//
// Only ExecContext calls whose SQL contains Match are counted (all of them
// when Match is empty); the FailOn-th one, counting from 1, returns Err.
// Reads pass through.
type FailingUoW struct {
	DB     *sql.DB
	Match  string
	FailOn int32
	Err    error
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	var seen atomic.Int32
	return db.NewSQLiteUnitOfWork(u.DB).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &failingTx{DBTX: tx, uow: u, seen: &seen})
	})
}

type failingTx struct {
	db.DBTX
	uow  *FailingUoW
	seen *atomic.Int32
}

func (f *failingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, f.uow.Match) && f.seen.Add(1) == f.uow.FailOn {
		return nil, f.uow.Err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
