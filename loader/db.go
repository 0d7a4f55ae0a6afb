package loader

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrStoreUnavailable reports that the relational store could not be
// reached at all, as opposed to a statement failing once connected.
var ErrStoreUnavailable = errors.New("database connection failed")

// DB is a connection capable of starting transactions. The loader
// depends on this abstraction, not on the driver, so inserts can be
// exercised without a live database.
type DB interface {
	BeginTx(ctx context.Context) (Tx, error)
	Close(ctx context.Context) error
}

// Tx supports statement execution and lifecycle.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connect opens a pgx connection wrapped in the DB abstraction.
func Connect(ctx context.Context, dsn string) (DB, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &pgDB{conn: conn}, nil
}

type pgDB struct {
	conn *pgx.Conn
}

func (p *pgDB) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (p *pgDB) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := t.tx.Exec(ctx, sql, args...)
	return err
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
