// Package postgres implements port.LedgerStore on top of PostgreSQL via
// database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/moneystack/moneystack-go/internal/port"
)

// queryer is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Every query in this package goes through it, so the same store methods
// work standalone or inside RunAtomic.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Ledger is the PostgreSQL persistence adapter. It implements port.Store
// for reads/writes and port.LedgerStore for atomic units of work.
type Ledger struct {
	db *sql.DB
	q  queryer
}

var _ port.LedgerStore = (*Ledger)(nil)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*Ledger, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewLedger(db), nil
}

// NewLedger wraps an existing connection pool.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db, q: db}
}

// Close releases the underlying connection pool.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RunAtomic runs fn inside a single database transaction. The Store handed
// to fn routes all operations through that transaction; any error rolls the
// whole unit back.
func (l *Ledger) RunAtomic(ctx context.Context, fn func(ctx context.Context, s port.Store) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	scoped := &Ledger{db: l.db, q: tx}
	if err := fn(ctx, scoped); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
