package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// RunInTx executes fn within a single transaction. The transaction is placed
// on the context so repositories called inside fn join it instead of hitting
// the pool directly. The transaction commits only if fn returns nil; any
// error rolls the whole unit back, so compound mutations (a status change
// plus its audit stamp, a user plus their profile row) apply all-or-nothing.
func RunInTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// TxFromContext returns the transaction placed on the context by RunInTx, or
// nil when the caller is not inside one.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}
